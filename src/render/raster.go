// Package render draws the live selection overlay and rasterizes annotation
// objects onto captured pixel buffers.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

type fpoint struct {
	X float64
	Y float64
}

// painter fills polygons onto dst. Every fill is its own rasterizer pass
// sized to the shape bounds, so overlapping shapes never cancel out.
type painter struct {
	dst draw.Image
	z   *vector.Rasterizer
}

func newPainter(dst draw.Image) *painter {
	return &painter{dst: dst, z: vector.NewRasterizer(0, 0)}
}

// fill paints the union of the given closed paths. Paths wound in opposite
// directions cut holes.
func (p *painter) fill(c color.Color, paths ...[]fpoint) {
	box, ok := pathBounds(paths)
	if !ok {
		return
	}
	box = box.Intersect(p.dst.Bounds())
	if box.Empty() {
		return
	}
	p.z.Reset(box.Dx(), box.Dy())
	p.z.DrawOp = draw.Over
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		p.z.MoveTo(float32(path[0].X-ox), float32(path[0].Y-oy))
		for _, pt := range path[1:] {
			p.z.LineTo(float32(pt.X-ox), float32(pt.Y-oy))
		}
		p.z.ClosePath()
	}
	p.z.Draw(p.dst, box, image.NewUniform(c), image.Point{})
}

func pathBounds(paths [][]fpoint) (image.Rectangle, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, path := range paths {
		for _, pt := range path {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
			n++
		}
	}
	if n == 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))), true
}

// segment strokes a straight line between pixel centers a and b with butt
// ends. An inclusive end reaches the far edge of its endpoint pixel, so the
// stroke never runs past the endpoints by more than that pixel.
func (p *painter) segment(a, b fpoint, width float64, c color.Color, inclStart, inclEnd bool) {
	if width <= 0 {
		width = 1
	}
	hw := width / 2
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		p.fill(c, rectPath(a.X-hw, a.Y-hw, a.X+hw, a.Y+hw))
		return
	}
	ux, uy := dx/length, dy/length
	if inclStart {
		a = fpoint{a.X - ux*0.5, a.Y - uy*0.5}
	}
	if inclEnd {
		b = fpoint{b.X + ux*0.5, b.Y + uy*0.5}
	}
	nx, ny := -uy*hw, ux*hw
	p.fill(c, []fpoint{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	})
}

// rectOutline strokes the inside edge of the pixel box [x1,x2)×[y1,y2).
func (p *painter) rectOutline(x1, y1, x2, y2, width float64, c color.Color) {
	outer := rectPath(x1, y1, x2, y2)
	if x2-x1 <= 2*width || y2-y1 <= 2*width {
		p.fill(c, outer)
		return
	}
	p.fill(c, outer, reversed(rectPath(x1+width, y1+width, x2-width, y2-width)))
}

// ellipseOutline strokes the inside edge of the ellipse inscribed in the
// pixel box [x1,x2)×[y1,y2).
func (p *painter) ellipseOutline(x1, y1, x2, y2, width float64, c color.Color) {
	cx, cy := (x1+x2)/2, (y1+y2)/2
	rx, ry := (x2-x1)/2, (y2-y1)/2
	outer := ellipsePath(cx, cy, rx, ry)
	if rx <= width || ry <= width {
		p.fill(c, outer)
		return
	}
	p.fill(c, outer, reversed(ellipsePath(cx, cy, rx-width, ry-width)))
}

func (p *painter) disc(cx, cy, r float64, c color.Color) {
	p.fill(c, ellipsePath(cx, cy, r, r))
}

func rectPath(x1, y1, x2, y2 float64) []fpoint {
	return []fpoint{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

func ellipsePath(cx, cy, rx, ry float64) []fpoint {
	perimeter := 2 * math.Pi * math.Sqrt((rx*rx+ry*ry)/2)
	steps := int(math.Ceil(perimeter / 2))
	steps = max(16, min(steps, 720))
	pts := make([]fpoint, steps)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(steps)
		pts[i] = fpoint{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
	}
	return pts
}

func reversed(path []fpoint) []fpoint {
	out := make([]fpoint, len(path))
	for i, pt := range path {
		out[len(path)-1-i] = pt
	}
	return out
}
