package screenshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"screen-capture-tool/src/geometry"

	"github.com/kbinani/screenshot"
)

// ErrCaptureUnavailable is returned when the platform denies or fails a
// screen read. It is fatal to the operation that requested the capture.
var ErrCaptureUnavailable = errors.New("screen capture unavailable")

// Service is the capture capability the canvas engine depends on.
// Capture returns a buffer whose bounds start at (0,0) and whose size equals
// the requested rect. EnumerateMonitors returns the virtual-desktop bounding
// box as element 0 followed by each physical display.
type Service interface {
	Capture(rect geometry.Rect) (*image.RGBA, error)
	EnumerateMonitors() ([]geometry.Rect, error)
}

// Screen captures the live desktop across all active displays.
type Screen struct{}

// NewScreen returns the live capture service.
func NewScreen() *Screen { return &Screen{} }

// EnumerateMonitors returns the union of all display bounds followed by each display.
func (s *Screen) EnumerateMonitors() ([]geometry.Rect, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("%w: no active displays found", ErrCaptureUnavailable)
	}
	displays := make([]geometry.Rect, 0, n)
	union := geometry.Rect{}
	for i := 0; i < n; i++ {
		b := geometry.FromImage(screenshot.GetDisplayBounds(i))
		displays = append(displays, b)
		union = union.Union(b)
	}
	return append([]geometry.Rect{union}, displays...), nil
}

// Capture captures a specific rect of the virtual desktop.
func (s *Screen) Capture(rect geometry.Rect) (*image.RGBA, error) {
	rect = rect.Normalized()
	if rect.Empty() {
		return nil, fmt.Errorf("invalid capture dimensions: width=%d, height=%d", rect.Width(), rect.Height())
	}

	img, err := screenshot.CaptureRect(rect.Image())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	return rebase(img), nil
}

// VirtualBounds returns the bounding box of every monitor known to s.
func VirtualBounds(s Service) (geometry.Rect, error) {
	monitors, err := s.EnumerateMonitors()
	if err != nil {
		return geometry.Rect{}, err
	}
	if len(monitors) == 0 {
		return geometry.Rect{}, fmt.Errorf("%w: no monitors reported", ErrCaptureUnavailable)
	}
	return monitors[0], nil
}

// EncodePNG converts a captured buffer to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

// rebase returns img with bounds starting at (0,0).
func rebase(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
