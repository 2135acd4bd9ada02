package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/clipboard"
	"screen-capture-tool/src/config"
	"screen-capture-tool/src/export"
	"screen-capture-tool/src/gui"
	"screen-capture-tool/src/hotkey"
	"screen-capture-tool/src/notification"
	"screen-capture-tool/src/overlay"
	"screen-capture-tool/src/singleinstance"
	"screen-capture-tool/src/tray"
	"screen-capture-tool/src/worker"
)

// DefaultExportDeadline bounds one save/copy job.
const DefaultExportDeadline = 30 * time.Second

// Request is work asked of the loop from outside its goroutine.
type Request int

const (
	RequestCapture Request = iota
	RequestSaveLast
	RequestCopyLast
)

func (r Request) String() string {
	switch r {
	case RequestSaveLast:
		return "save-last"
	case RequestCopyLast:
		return "copy-last"
	default:
		return "capture"
	}
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Show(title, message string)
	ShowError(title, message string)
}

type systemNotifier struct{}

func (systemNotifier) Show(title, message string)      { notification.Show(title, message) }
func (systemNotifier) ShowError(title, message string) { notification.ShowError(title, message) }

// Loop is the single-threaded coordinator for hotkey and tray driven captures.
type Loop struct {
	cfg            *config.Config
	selector       overlay.Selector
	pool           *worker.Pool
	clipboard      export.ImageWriter
	notify         Notifier
	busy           bool
	last           *canvas.Artifact
	results        chan result
	hotkeyCh       chan struct{}
	requests       chan Request
	server         singleinstance.Server
	remote         chan singleinstance.Conn
	pending        singleinstance.Conn
	defaultTooltip string
	deadline       time.Duration
	now            func() time.Time
	persist        func(*config.Config) error
}

type result struct {
	res    worker.Result
	cancel context.CancelFunc
}

// New creates a new event loop over the live screen.
func New(cfg *config.Config) *Loop {
	notify := systemNotifier{}
	return newLoop(cfg, overlay.NewSelector(notify.ShowError), worker.New(1), clipboard.System{}, notify)
}

func newLoop(cfg *config.Config, selector overlay.Selector, pool *worker.Pool, clip export.ImageWriter, notify Notifier) *Loop {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Loop{
		cfg:            cfg,
		selector:       selector,
		pool:           pool,
		clipboard:      clip,
		notify:         notify,
		results:        make(chan result, 1),
		hotkeyCh:       make(chan struct{}, 4),
		requests:       make(chan Request, 4),
		remote:         make(chan singleinstance.Conn),
		defaultTooltip: "Screen Capture Tool",
		deadline:       DefaultExportDeadline,
		now:            time.Now,
		persist:        func(c *config.Config) error { return config.Save("", c) },
	}
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		tray.UpdateTooltip("Screen Capture: saving...")
	} else {
		tray.UpdateTooltip(l.defaultTooltip)
	}
}

// StartHotkey registers a global hotkey and posts events into the loop.
func (l *Loop) StartHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(combo, func() {
		select {
		case l.hotkeyCh <- struct{}{}:
		default:
		}
	})
}

// Post queues r for the loop. It never blocks; a full queue drops r.
func (l *Loop) Post(r Request) {
	select {
	case l.requests <- r:
	default:
		log.Printf("eventloop: dropping %s request, queue full", r)
	}
}

// Serve makes Run answer capture requests delegated through srv.
func (l *Loop) Serve(srv singleinstance.Server) { l.server = srv }

// Run processes requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer l.dropPending()
	if l.server != nil {
		go l.forwardRemote(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleRequest(ctx, RequestCapture)
		case r := <-l.requests:
			l.handleRequest(ctx, r)
		case conn := <-l.remote:
			l.handleRemote(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) forwardRemote(ctx context.Context) {
	for {
		conn, err := l.server.Next(ctx)
		if err != nil {
			return
		}
		select {
		case l.remote <- conn:
		case <-ctx.Done():
			conn.RespondError("resident is shutting down")
			conn.Close()
			return
		}
	}
}

func (l *Loop) handleRequest(ctx context.Context, r Request) {
	log.Printf("eventloop: %s requested", r)
	if l.busy {
		log.Printf("eventloop: busy, skipping %s", r)
		l.notify.Show("Busy", "An export is still running, please retry.")
		return
	}
	switch r {
	case RequestCapture:
		l.capture(ctx, gui.ActionNone)
	case RequestSaveLast:
		l.exportLast(ctx, true, false)
	case RequestCopyLast:
		l.exportLast(ctx, false, true)
	}
}

// outcome is how a capture request ended.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeCancelled
	// outcomeKept means the capture is held as the last one with no export.
	outcomeKept
	outcomeExporting
)

// capture runs one session. fallback applies when the session ended
// without an explicit action.
func (l *Loop) capture(ctx context.Context, fallback gui.Action) (outcome, error) {
	res, cancelled, err := l.selector.Select(ctx, l.cfg.Snapshot())
	if err != nil {
		log.Printf("eventloop: capture error: %v", err)
		l.notify.ShowError("Capture failed", err.Error())
		return outcomeFailed, err
	}
	l.rememberMagnifier(res.Magnifier)
	if cancelled || res.Artifact == nil {
		log.Printf("eventloop: capture cancelled")
		return outcomeCancelled, nil
	}
	l.last = res.Artifact
	tray.SetLastAvailable(true)

	action := res.Action
	if action == gui.ActionNone {
		action = fallback
	}
	save, toClipboard := l.plan(action)
	log.Printf("eventloop: captured %dx%d, action=%s save=%v copy=%v", res.Artifact.Width(), res.Artifact.Height(), action, save, toClipboard)
	if !save && !toClipboard {
		return outcomeKept, nil
	}
	if !l.submit(ctx, res.Artifact, save, toClipboard) {
		return outcomeFailed, errBusy
	}
	return outcomeExporting, nil
}

// rememberMagnifier writes a magnifier toggle made during a session back to
// the settings file so the next session starts the same way.
func (l *Loop) rememberMagnifier(on bool) {
	if on == l.cfg.ShowMagnifier {
		return
	}
	l.cfg.ShowMagnifier = on
	if err := l.persist(l.cfg); err != nil {
		log.Printf("eventloop: failed to save settings: %v", err)
		return
	}
	log.Printf("eventloop: saved SHOW_MAGNIFIER=%v to %s", on, l.cfg.Path)
}

var errBusy = errors.New("an export is still running")

func remoteAction(a string) gui.Action {
	switch a {
	case "save":
		return gui.ActionSave
	case "copy":
		return gui.ActionCopy
	}
	return gui.ActionNone
}

// handleRemote runs a delegated capture. The client is answered when the
// export finishes, or right away when there is nothing to export.
func (l *Loop) handleRemote(ctx context.Context, conn singleinstance.Conn) {
	if l.busy || l.pending != nil {
		conn.RespondError(errBusy.Error())
		conn.Close()
		return
	}
	o, err := l.capture(ctx, remoteAction(conn.Request().Action))
	switch o {
	case outcomeExporting:
		l.pending = conn
		return
	case outcomeCancelled:
		conn.RespondCancelled()
	case outcomeKept:
		conn.RespondSuccess("")
	default:
		conn.RespondError(err.Error())
	}
	conn.Close()
}

func (l *Loop) dropPending() {
	if l.pending != nil {
		l.pending.RespondError("resident is shutting down")
		l.pending.Close()
		l.pending = nil
	}
}

// plan resolves what to do with a kept capture. An explicit action wins
// over the configured defaults.
func (l *Loop) plan(a gui.Action) (save, toClipboard bool) {
	switch a {
	case gui.ActionSave:
		return true, false
	case gui.ActionCopy:
		return false, true
	}
	return l.cfg.AutoSave, l.cfg.CopyToClipboard
}

// CaptureOnce runs a single session and waits for its export. A capture
// with nothing configured to do is saved, since it would otherwise be lost
// when the process exits. The pool is closed on return.
func (l *Loop) CaptureOnce(ctx context.Context) (worker.Result, bool, error) {
	defer l.pool.Close()
	res, cancelled, err := l.selector.Select(ctx, l.cfg.Snapshot())
	if err != nil {
		return worker.Result{}, false, err
	}
	l.rememberMagnifier(res.Magnifier)
	if cancelled || res.Artifact == nil {
		return worker.Result{}, true, nil
	}
	l.last = res.Artifact

	save, toClipboard := l.plan(res.Action)
	if !save && !toClipboard {
		save = true
	}
	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	defer cancel()
	done := make(chan worker.Result, 1)
	if !l.pool.Submit(jobCtx, l.job(res.Artifact, save, toClipboard), func(r worker.Result) { done <- r }) {
		return worker.Result{}, false, errors.New("export queue is full")
	}
	select {
	case r := <-done:
		return r, false, r.Err()
	case <-ctx.Done():
		return worker.Result{}, false, ctx.Err()
	}
}

func (l *Loop) job(art *canvas.Artifact, save, toClipboard bool) worker.Job {
	return worker.Job{
		Image:     art.Image(),
		SaveDir:   l.cfg.ResolvedSaveDir(),
		Prefix:    l.cfg.DefaultFilename,
		Save:      save,
		Copy:      toClipboard,
		Clipboard: l.clipboard,
		Now:       l.now(),
	}
}

func (l *Loop) exportLast(ctx context.Context, save, toClipboard bool) {
	if l.last == nil {
		l.notify.Show("Nothing captured", "Take a capture first.")
		return
	}
	l.submit(ctx, l.last, save, toClipboard)
}

func (l *Loop) submit(ctx context.Context, art *canvas.Artifact, save, toClipboard bool) bool {
	job := l.job(art, save, toClipboard)
	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, job, func(res worker.Result) {
		l.results <- result{res: res, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		l.notify.Show("Busy", "An export is still running, please retry.")
	}
	return submitted
}

func (l *Loop) handleResult(r result) {
	defer func() {
		l.setBusy(false)
		if r.cancel != nil {
			r.cancel()
		}
	}()
	res := r.res
	if res.SaveErr != nil {
		log.Printf("eventloop: save failed: %v", res.SaveErr)
		l.notify.ShowError("Save failed", fmt.Sprintf("%v\n\nUse \"Save last capture\" from the tray to retry.", res.SaveErr))
	} else if res.Path != "" {
		l.notify.Show("Capture saved", res.Path)
	}
	if res.CopyErr != nil {
		log.Printf("eventloop: copy failed: %v", res.CopyErr)
		l.notify.ShowError("Copy failed", fmt.Sprintf("%v\n\nUse \"Copy last capture\" from the tray to retry.", res.CopyErr))
	}
	if l.pending != nil {
		if err := res.Err(); err != nil {
			l.pending.RespondError(err.Error())
		} else {
			l.pending.RespondSuccess(res.Path)
		}
		l.pending.Close()
		l.pending = nil
	}
}

// Deadline returns the export deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }

// Last returns the most recent kept capture.
func (l *Loop) Last() (*canvas.Artifact, bool) { return l.last, l.last != nil }
