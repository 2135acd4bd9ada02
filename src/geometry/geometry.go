// Package geometry holds the integer rectangle and point helpers shared by the
// selection, annotation and rendering packages. All values live in
// virtual-desktop pixel space unless a caller translates them.
package geometry

import "image"

// Point is an integer pixel coordinate.
type Point struct {
	X int
	Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Image converts p to an image.Point.
func (p Point) Image() image.Point { return image.Point{X: p.X, Y: p.Y} }

// PointF is a pointer sample before it is finalized. Window systems may
// report sub-pixel positions; they are truncated, not rounded.
type PointF struct {
	X float64
	Y float64
}

// Trunc converts p to integer pixels by truncation toward zero.
func (p PointF) Trunc() Point { return Point{X: int(p.X), Y: int(p.Y)} }

// Rect is a rectangle with corners (X1,Y1) and (X2,Y2). X2/Y2 are exclusive
// when the rect is used as a pixel area.
type Rect struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Normalize builds the rect spanned by two arbitrary corners.
func Normalize(a, b Point) Rect {
	return Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}.Normalized()
}

// NormalizeF normalizes two float corners, truncating the result.
func NormalizeF(a, b PointF) Rect {
	x1, x2 := minMaxF(a.X, b.X)
	y1, y2 := minMaxF(a.Y, b.Y)
	return Rect{X1: int(x1), Y1: int(y1), X2: int(x2), Y2: int(y2)}
}

// Normalized restores X1<=X2 and Y1<=Y2.
func (r Rect) Normalized() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// IsNormalized reports whether X1<=X2 and Y1<=Y2.
func (r Rect) IsNormalized() bool { return r.X1 <= r.X2 && r.Y1 <= r.Y2 }

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.X1 >= r.X2 || r.Y1 >= r.Y2 }

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{X: r.X1, Y: r.Y1} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{X: r.X2, Y: r.Y2} }

// Center returns the integer center of r.
func (r Rect) Center() Point { return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2} }

// Contains reports whether p lies inside r, treating X2/Y2 as exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}

// ContainsRect reports whether s lies fully inside r.
func (r Rect) ContainsRect(s Rect) bool {
	return s.X1 >= r.X1 && s.Y1 >= r.Y1 && s.X2 <= r.X2 && s.Y2 <= r.Y2
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Local expresses r relative to origin.
func (r Rect) Local(origin Point) Rect { return r.Translate(-origin.X, -origin.Y) }

// Intersect clips r to bounds. The result is empty (zero size at the clamped
// corner) when they do not overlap.
func (r Rect) Intersect(bounds Rect) Rect {
	r = r.Normalized()
	out := Rect{
		X1: clamp(r.X1, bounds.X1, bounds.X2),
		Y1: clamp(r.Y1, bounds.Y1, bounds.Y2),
		X2: clamp(r.X2, bounds.X1, bounds.X2),
		Y2: clamp(r.Y2, bounds.Y1, bounds.Y2),
	}
	return out
}

// Union returns the smallest rect containing r and s.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		X1: min(r.X1, s.X1),
		Y1: min(r.Y1, s.Y1),
		X2: max(r.X2, s.X2),
		Y2: max(r.Y2, s.Y2),
	}
}

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle { return image.Rect(r.X1, r.Y1, r.X2, r.Y2) }

// FromImage converts an image.Rectangle to a Rect.
func FromImage(r image.Rectangle) Rect {
	return Rect{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// FromSize builds a rect from a corner and a size.
func FromSize(x, y, w, h int) Rect { return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h} }

// ClampPoint keeps p inside bounds (inclusive of X2/Y2 minus one).
func ClampPoint(p Point, bounds Rect) Point {
	return Point{
		X: clamp(p.X, bounds.X1, bounds.X2-1),
		Y: clamp(p.Y, bounds.Y1, bounds.Y2-1),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minMaxF(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
