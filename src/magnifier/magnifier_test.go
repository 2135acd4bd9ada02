package magnifier

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/screenshot"
)

var desktop = geometry.Rect{X1: 0, Y1: 0, X2: 1920, Y2: 1080}

func TestCaptureWindow(t *testing.T) {
	tests := []struct {
		name   string
		cursor geometry.Point
		want   geometry.Rect
	}{
		{"centered", geometry.Pt(500, 500), geometry.Rect{X1: 475, Y1: 475, X2: 525, Y2: 525}},
		{"top-left corner", geometry.Pt(3, 4), geometry.Rect{X1: 0, Y1: 0, X2: 50, Y2: 50}},
		{"bottom-right corner", geometry.Pt(1919, 1079), geometry.Rect{X1: 1870, Y1: 1030, X2: 1920, Y2: 1080}},
		{"right edge only", geometry.Pt(1910, 500), geometry.Rect{X1: 1870, Y1: 475, X2: 1920, Y2: 525}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CaptureWindow(tt.cursor, desktop, 150, 3)
			assert.Equal(t, tt.want, got)
			assert.True(t, desktop.ContainsRect(got))
		})
	}
}

func TestCaptureWindowShrinksOnTinyDesktop(t *testing.T) {
	tiny := geometry.Rect{X1: 0, Y1: 0, X2: 30, Y2: 20}
	got := CaptureWindow(geometry.Pt(10, 10), tiny, 150, 3)
	assert.Equal(t, tiny, got)
}

func TestCaptureWindowNegativeOrigin(t *testing.T) {
	left := geometry.Rect{X1: -1920, Y1: 0, X2: 1920, Y2: 1080}
	got := CaptureWindow(geometry.Pt(-1915, 10), left, 150, 3)
	assert.Equal(t, geometry.Rect{X1: -1920, Y1: 0, X2: -1870, Y2: 50}, got)
}

func TestPlacement(t *testing.T) {
	assert.Equal(t, geometry.Pt(120, 120), Placement(geometry.Pt(100, 100), desktop, 150))
	assert.Equal(t, geometry.Pt(1900-150-20, 120), Placement(geometry.Pt(1900, 100), desktop, 150), "flips left")
	assert.Equal(t, geometry.Pt(120, 1000-150-20), Placement(geometry.Pt(100, 1000), desktop, 150), "flips up")
	assert.Equal(t, geometry.Pt(1900-150-20, 1000-150-20), Placement(geometry.Pt(1900, 1000), desktop, 150), "flips both")
}

func TestPlacementClampsFlipToDesktop(t *testing.T) {
	small := geometry.Rect{X1: 0, Y1: 0, X2: 200, Y2: 200}
	assert.Equal(t, geometry.Pt(0, 0), Placement(geometry.Pt(100, 100), small, 150))
	assert.Equal(t, geometry.Pt(20, 0), Placement(geometry.Pt(0, 50), small, 150), "only y flips")

	left := geometry.Rect{X1: -1920, Y1: 0, X2: 0, Y2: 1080}
	assert.Equal(t, geometry.Pt(-1920, 120), Placement(geometry.Pt(-1850, 100), geometry.Rect{X1: -1920, Y1: 0, X2: -1750, Y2: 1080}, 150))
	assert.Equal(t, geometry.Pt(-10-150-20, 120), Placement(geometry.Pt(-10, 100), left, 150))
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 0xff
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

func TestUpdateScalesWithNearestNeighbor(t *testing.T) {
	src := screenshot.NewImageSource(checkerboard(200, 200))
	m := New(src, src.Bounds(), 150, 3)

	assert.False(t, m.Update(geometry.Pt(100, 100)), "disabled magnifier does nothing")
	assert.Equal(t, 0, src.Calls)

	m.SetEnabled(true)
	require.True(t, m.Update(geometry.Pt(100, 100)))
	frame := m.Frame()
	require.Equal(t, image.Rect(0, 0, 150, 150), frame.Bounds())

	// Each source pixel becomes a solid 3x3 block.
	block := frame.RGBAAt(0, 0)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, block, frame.RGBAAt(x, y))
		}
	}
	assert.NotEqual(t, block, frame.RGBAAt(3, 0))

	red := color.RGBA{R: 0xff, A: 0xff}
	assert.Equal(t, red, frame.RGBAAt(75, 10), "vertical crosshair")
	assert.Equal(t, red, frame.RGBAAt(10, 75), "horizontal crosshair")
	// The 200x200 desktop is too small for the loupe on either side.
	assert.Equal(t, geometry.Pt(0, 0), m.Position())
}

func TestUpdateKeepsLastFrameOnError(t *testing.T) {
	src := screenshot.NewImageSource(checkerboard(200, 200))
	m := New(src, src.Bounds(), 150, 3)
	m.SetEnabled(true)
	require.True(t, m.Update(geometry.Pt(50, 50)))
	last := m.Frame()
	pix := append([]byte(nil), last.Pix...)

	src.Err = errors.New("display asleep")
	assert.False(t, m.Update(geometry.Pt(60, 60)))
	assert.Same(t, last, m.Frame())
	assert.Equal(t, pix, m.Frame().Pix)
	assert.Equal(t, geometry.Pt(0, 0), m.Position(), "position unchanged")
}

func TestToggle(t *testing.T) {
	m := New(nil, desktop, 0, 0)
	assert.Equal(t, DefaultSize, m.Size())
	assert.True(t, m.Toggle())
	assert.False(t, m.Toggle())
	assert.False(t, m.Update(geometry.Pt(1, 1)))
}
