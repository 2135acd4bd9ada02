package render

import (
	"image"
	"image/color"
	"image/draw"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/geometry"
)

var (
	cursorColor   = color.RGBA{R: 0xff, A: 0xff}
	cursorOutline = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

const (
	cursorArm    = 10
	cursorWidth  = 2
	cursorRadius = 3
)

// Compose draws objects onto dst in order. Objects are in desktop space and
// origin is the desktop position of dst's (0,0) pixel, normally the
// selection's top-left corner. Drawing is clipped to dst.Bounds().
func Compose(dst draw.Image, origin geometry.Point, objects []annotation.Object, faces *FaceCache) {
	p := newPainter(dst)
	for _, o := range objects {
		drawObject(p, o.Local(origin), faces)
	}
}

// DrawObject draws a single object that is already in dst's coordinates.
func DrawObject(dst draw.Image, o annotation.Object, faces *FaceCache) {
	drawObject(newPainter(dst), o, faces)
}

func drawObject(p *painter, o annotation.Object, faces *FaceCache) {
	width := float64(o.Style.Width)
	if width <= 0 {
		width = 1
	}
	c := o.Style.Color
	a := center(o.Start)
	b := center(o.End)

	switch o.Kind {
	case annotation.KindLine:
		p.segment(a, b, width, c, true, true)
	case annotation.KindArrow:
		p.segment(a, b, width, c, true, false)
		l, r := ArrowHead(geometry.PointF{X: a.X, Y: a.Y}, geometry.PointF{X: b.X, Y: b.Y})
		p.fill(c, []fpoint{b, {l.X, l.Y}, {r.X, r.Y}})
	case annotation.KindRectangle:
		box := o.Bounds()
		p.rectOutline(float64(box.X1), float64(box.Y1), float64(box.X2+1), float64(box.Y2+1), width, c)
	case annotation.KindEllipse:
		box := o.Bounds()
		p.ellipseOutline(float64(box.X1), float64(box.Y1), float64(box.X2+1), float64(box.Y2+1), width, c)
	case annotation.KindText:
		DrawText(p.dst, faces.Face(o.Font), o.Start, o.Text, c)
	}
}

// DrawCursor stamps the cursor marker, a red crosshair with a small
// white-rimmed dot, centered at p. It reports false and draws nothing when
// p lies outside the closed bounds of dst.
func DrawCursor(dst draw.Image, p geometry.Point) bool {
	b := dst.Bounds()
	if p.X < b.Min.X || p.X > b.Max.X || p.Y < b.Min.Y || p.Y > b.Max.Y {
		return false
	}
	pt := newPainter(dst)
	c := center(p)
	pt.segment(fpoint{c.X - cursorArm, c.Y}, fpoint{c.X + cursorArm, c.Y}, cursorWidth, cursorColor, false, false)
	pt.segment(fpoint{c.X, c.Y - cursorArm}, fpoint{c.X, c.Y + cursorArm}, cursorWidth, cursorColor, false, false)
	pt.disc(c.X, c.Y, cursorRadius+1, cursorOutline)
	pt.disc(c.X, c.Y, cursorRadius, cursorColor)
	return true
}

// Clone returns a copy of src with the same bounds.
func Clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func center(p geometry.Point) fpoint {
	return fpoint{float64(p.X) + 0.5, float64(p.Y) + 0.5}
}
