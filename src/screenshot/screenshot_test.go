package screenshot

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"screen-capture-tool/src/geometry"
)

func TestCapture(t *testing.T) {
	// Requires a display; only checks that the call does not panic.
	s := NewScreen()
	bounds, err := VirtualBounds(s)
	if err != nil {
		t.Logf("Failed to enumerate monitors (expected in headless environment): %v", err)
		return
	}
	if _, err := s.Capture(geometry.FromSize(bounds.X1, bounds.Y1, 10, 10)); err != nil {
		t.Logf("Failed to capture region (expected in headless environment): %v", err)
	}
}

func TestCaptureInvalidRect(t *testing.T) {
	if _, err := NewScreen().Capture(geometry.Rect{}); err == nil {
		t.Error("Expected error for invalid region dimensions")
	}
}

func TestImageSourceCapture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	marker := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	img.SetRGBA(7, 9, marker)

	src := NewImageSource(img)
	src.Origin = geometry.Pt(-10, 100)

	got, err := src.Capture(geometry.Rect{X1: -5, Y1: 105, X2: 5, Y2: 115})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("expected 10x10 buffer at origin, got %v", got.Bounds())
	}
	// desktop (-3,109) -> image (7,9) -> local (2,4)
	if c := got.RGBAAt(2, 4); c != marker {
		t.Fatalf("expected marker at local (2,4), got %#v", c)
	}
	if src.Calls != 1 {
		t.Fatalf("expected 1 capture call, got %d", src.Calls)
	}
}

func TestImageSourceOutsideDesktop(t *testing.T) {
	src := NewImageSource(image.NewRGBA(image.Rect(0, 0, 20, 20)))
	_, err := src.Capture(geometry.Rect{X1: 15, Y1: 15, X2: 25, Y2: 25})
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
}

func TestImageSourceMonitorsStartWithVirtualBounds(t *testing.T) {
	src := NewImageSource(image.NewRGBA(image.Rect(0, 0, 40, 30)))
	bounds, err := VirtualBounds(src)
	if err != nil {
		t.Fatalf("VirtualBounds failed: %v", err)
	}
	if bounds != (geometry.Rect{X1: 0, Y1: 0, X2: 40, Y2: 30}) {
		t.Fatalf("unexpected bounds %v", bounds)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("expected PNG signature, got %v", data[:8])
	}
}
