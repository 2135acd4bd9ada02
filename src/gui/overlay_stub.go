//go:build !windows

package gui

import (
	"context"

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/screenshot"
)

// RunSession is a stub for non-Windows platforms.
func RunSession(ctx context.Context, source screenshot.Service, settings canvas.Settings, notify Notifier) (Result, bool, error) {
	return Result{}, false, ErrUnsupported
}
