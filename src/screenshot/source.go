package screenshot

import (
	"fmt"
	"image"
	"image/draw"

	"screen-capture-tool/src/geometry"
)

// ImageSource serves captures out of a desktop image held in memory. The CLI
// uses it to annotate existing PNG files and tests use it as a fake screen.
type ImageSource struct {
	Desktop *image.RGBA
	// Origin is the virtual-desktop position of the image's top-left pixel.
	Origin geometry.Point
	// Monitors optionally splits the desktop into displays.
	Monitors []geometry.Rect
	// Err, when set, is returned from every Capture call.
	Err error

	Calls int
}

// NewImageSource wraps img, placing its top-left pixel at the desktop origin.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{Desktop: toRGBA(img)}
}

// Bounds returns the desktop area covered by the image.
func (s *ImageSource) Bounds() geometry.Rect {
	b := s.Desktop.Bounds()
	return geometry.FromSize(s.Origin.X, s.Origin.Y, b.Dx(), b.Dy())
}

func (s *ImageSource) EnumerateMonitors() ([]geometry.Rect, error) {
	bounds := s.Bounds()
	out := []geometry.Rect{bounds}
	if len(s.Monitors) == 0 {
		return append(out, bounds), nil
	}
	return append(out, s.Monitors...), nil
}

func (s *ImageSource) Capture(rect geometry.Rect) (*image.RGBA, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	rect = rect.Normalized()
	if rect.Empty() {
		return nil, fmt.Errorf("invalid capture dimensions: width=%d, height=%d", rect.Width(), rect.Height())
	}
	if !s.Bounds().ContainsRect(rect) {
		return nil, fmt.Errorf("%w: rect %v outside desktop %v", ErrCaptureUnavailable, rect, s.Bounds())
	}

	local := rect.Local(s.Origin)
	out := image.NewRGBA(image.Rect(0, 0, rect.Width(), rect.Height()))
	draw.Draw(out, out.Bounds(), s.Desktop, s.Desktop.Bounds().Min.Add(local.Min().Image()), draw.Src)
	return out, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
