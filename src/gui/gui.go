// Package gui is the window-system glue around a capture session: it shows
// the engine's frame full screen and feeds pointer and keyboard input back.
package gui

import "errors"

// ErrBusy is returned when a session is already on screen.
var ErrBusy = errors.New("a capture session is already open")

// ErrUnsupported is returned on platforms without an overlay window.
var ErrUnsupported = errors.New("interactive capture not implemented for this platform")
