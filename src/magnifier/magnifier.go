// Package magnifier produces the zoomed loupe that follows the pointer.
package magnifier

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	xdraw "golang.org/x/image/draw"

	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/screenshot"
)

const (
	DefaultSize = 150
	DefaultZoom = 3

	// Offset is the gap between the pointer and the loupe window.
	Offset = 20
)

var crosshairColor = color.RGBA{R: 0xff, A: 0xff}

// Magnifier re-captures a small window around the pointer on every update
// and scales it up with nearest-neighbor sampling. Capture failures keep the
// previous frame.
type Magnifier struct {
	source  screenshot.Service
	desktop geometry.Rect
	size    int
	zoom    int
	enabled bool

	frame    *image.RGBA
	position geometry.Point
}

// New creates a disabled magnifier over desktop.
func New(source screenshot.Service, desktop geometry.Rect, size, zoom int) *Magnifier {
	if size <= 0 {
		size = DefaultSize
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &Magnifier{source: source, desktop: desktop, size: size, zoom: zoom}
}

func (m *Magnifier) Enabled() bool            { return m.enabled }
func (m *Magnifier) SetEnabled(on bool)       { m.enabled = on }
func (m *Magnifier) Size() int                { return m.size }
func (m *Magnifier) Frame() *image.RGBA       { return m.frame }
func (m *Magnifier) Position() geometry.Point { return m.position }

// Toggle flips the magnifier and returns the new state.
func (m *Magnifier) Toggle() bool {
	m.enabled = !m.enabled
	return m.enabled
}

// Update refreshes the loupe for a pointer at cursor (desktop space). It
// reports whether a new frame was produced.
func (m *Magnifier) Update(cursor geometry.Point) bool {
	if !m.enabled || m.source == nil {
		return false
	}
	win := CaptureWindow(cursor, m.desktop, m.size, m.zoom)
	if win.Empty() {
		return false
	}
	img, err := m.source.Capture(win)
	if err != nil {
		log.Printf("Magnifier: capture %v failed: %v", win, err)
		return false
	}
	if m.frame == nil {
		m.frame = image.NewRGBA(image.Rect(0, 0, m.size, m.size))
	}
	xdraw.NearestNeighbor.Scale(m.frame, m.frame.Bounds(), img, img.Bounds(), draw.Src, nil)
	drawCrosshair(m.frame)
	m.position = Placement(cursor, m.desktop, m.size)
	return true
}

// CaptureWindow returns the size/zoom square centered on cursor, shifted
// back inside desktop at the edges and shrunk only when the desktop itself
// is smaller.
func CaptureWindow(cursor geometry.Point, desktop geometry.Rect, size, zoom int) geometry.Rect {
	if zoom <= 0 {
		zoom = 1
	}
	span := max(size/zoom, 1)
	left := max(desktop.X1, cursor.X-span/2)
	top := max(desktop.Y1, cursor.Y-span/2)
	right := min(desktop.X2, left+span)
	bottom := min(desktop.Y2, top+span)
	if right-left < span {
		left = max(desktop.X1, right-span)
	}
	if bottom-top < span {
		top = max(desktop.Y1, bottom-span)
	}
	return geometry.Rect{X1: left, Y1: top, X2: right, Y2: bottom}
}

// Placement puts the loupe Offset pixels below-right of the cursor and flips
// each axis that would run past the desktop. A flipped axis never starts
// before the desktop origin.
func Placement(cursor geometry.Point, desktop geometry.Rect, size int) geometry.Point {
	x := cursor.X + Offset
	y := cursor.Y + Offset
	if x+size > desktop.X2 {
		x = max(desktop.X1, cursor.X-size-Offset)
	}
	if y+size > desktop.Y2 {
		y = max(desktop.Y1, cursor.Y-size-Offset)
	}
	return geometry.Pt(x, y)
}

func drawCrosshair(img *image.RGBA) {
	b := img.Bounds()
	cx := b.Min.X + b.Dx()/2
	cy := b.Min.Y + b.Dy()/2
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, cy, crosshairColor)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(cx, y, crosshairColor)
	}
}
