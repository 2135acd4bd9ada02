package canvas

import (
	"image"
	"image/draw"

	"screen-capture-tool/src/geometry"
)

// Artifact is the composited result of one confirmed capture. It is never
// modified after Confirm returns it.
type Artifact struct {
	pixels *image.RGBA
	rect   geometry.Rect
}

// Image returns the composited pixels. The returned image must be treated
// as read-only; use Copy for a private buffer.
func (a *Artifact) Image() image.Image { return a.pixels }

// Copy returns a private copy of the pixels.
func (a *Artifact) Copy() *image.RGBA {
	out := image.NewRGBA(a.pixels.Bounds())
	draw.Draw(out, out.Bounds(), a.pixels, a.pixels.Bounds().Min, draw.Src)
	return out
}

func (a *Artifact) Width() int  { return a.pixels.Bounds().Dx() }
func (a *Artifact) Height() int { return a.pixels.Bounds().Dy() }

// Rect is the desktop area the artifact was captured from.
func (a *Artifact) Rect() geometry.Rect { return a.rect }
