// Package singleinstance lets one resident own a loopback TCP port and
// accept capture requests from later invocations.
package singleinstance

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRunning means another resident owns the port.
	ErrAlreadyRunning = errors.New("a resident instance is already running")
	// ErrCancelled is returned to a client whose delegated session was cancelled.
	ErrCancelled = errors.New("capture cancelled")
)

// Server owns the TCP endpoint and answers capture requests.
type Server interface {
	// Start binds the first port of the configured range. It fails with
	// ErrAlreadyRunning when the port is taken.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn is one client waiting for the outcome of its capture.
type Conn interface {
	Request() Request
	// RespondSuccess sends the saved path, empty when nothing was saved.
	RespondSuccess(path string) error
	RespondCancelled() error
	RespondError(msg string) error
	Close() error
}

// Request is a single delegated capture.
type Request struct {
	// Action is "", "save" or "copy"; empty follows the resident's settings.
	Action string
}

// Client delegates a capture to a resident server.
type Client interface {
	// TryCapture pings the port range and hands the capture to the first
	// resident that answers. With no resident it returns delegated=false
	// and a nil error.
	TryCapture(ctx context.Context, req Request) (delegated bool, path string, err error)
}

// Ports is the inclusive loopback port range. The resident binds Start;
// clients scan the whole range.
type Ports struct {
	Start int
	End   int
}

// DefaultPorts is used when a range leaves both ends unset.
var DefaultPorts = Ports{Start: 49600, End: 49610}

// Normalize fills unset ends from DefaultPorts, clamps to the
// unprivileged range and orders the ends.
func (p Ports) Normalize() Ports {
	if p.Start == 0 {
		p.Start = DefaultPorts.Start
	}
	if p.End == 0 {
		p.End = DefaultPorts.End
	}
	p.Start = min(max(p.Start, 1024), 65535)
	p.End = min(max(p.End, 1024), 65535)
	if p.End < p.Start {
		p.Start, p.End = p.End, p.Start
	}
	return p
}

// NewServer returns the TCP implementation listening on ports.Start.
func NewServer(ports Ports) Server { return newTCPServer(ports.Normalize()) }

// NewClient returns the TCP implementation scanning ports.
func NewClient(ports Ports) Client { return newTCPClient(ports.Normalize()) }
