package overlay

import (
	"context"

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/gui"
	"screen-capture-tool/src/screenshot"
)

// Selector defines a synchronous capture-session API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (result, cancelled, error). If cancelled is true, result carries no
// artifact and err is nil.
type Selector interface {
	Select(ctx context.Context, settings canvas.Settings) (gui.Result, bool, error)
}

// SessionFunc runs one interactive session; gui.RunSession in production.
type SessionFunc func(ctx context.Context, source screenshot.Service, settings canvas.Settings, notify gui.Notifier) (gui.Result, bool, error)

// NewSelector returns the platform implementation over the live screen.
func NewSelector(notify gui.Notifier) Selector {
	return &sessionSelector{source: screenshot.NewScreen(), notify: notify, run: gui.RunSession}
}

// NewSelectorWith runs sessions with run over source.
func NewSelectorWith(source screenshot.Service, notify gui.Notifier, run SessionFunc) Selector {
	return &sessionSelector{source: source, notify: notify, run: run}
}

type sessionSelector struct {
	source screenshot.Service
	notify gui.Notifier
	run    SessionFunc
}

func (s *sessionSelector) Select(ctx context.Context, settings canvas.Settings) (gui.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return gui.Result{}, false, err
	}
	res, cancelled, err := s.run(ctx, s.source, settings, s.notify)
	if err != nil {
		return gui.Result{}, false, err
	}
	if cancelled {
		return gui.Result{Magnifier: res.Magnifier}, true, nil
	}
	// Check if context was cancelled during the session
	select {
	case <-ctx.Done():
		return gui.Result{}, false, ctx.Err()
	default:
		return res, false, nil
	}
}
