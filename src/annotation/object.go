// Package annotation holds the vector annotation objects drawn on top of a
// selection and the undo/redo history that owns them.
package annotation

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"screen-capture-tool/src/geometry"
)

// Kind tags the variant carried by an Object.
type Kind int

const (
	KindLine Kind = iota
	KindArrow
	KindRectangle
	KindEllipse
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindArrow:
		return "arrow"
	case KindRectangle:
		return "rectangle"
	case KindEllipse:
		return "ellipse"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Style is the stroke captured when an object is created.
type Style struct {
	Color color.RGBA
	Width int
}

// Font describes how a Text object is drawn.
type Font struct {
	Size float64
	Bold bool
}

// Object is one annotation. Coordinates are virtual-desktop pixels; they
// become image-local only at rasterization time.
//
// Line and Arrow run from Start to End, Arrow carrying its head at End.
// Rectangle and Ellipse use Start/End as opposite corners of their bounds.
// Text is anchored at Start (top-left) and ignores End.
type Object struct {
	ID    int
	Kind  Kind
	Start geometry.Point
	End   geometry.Point
	Style Style
	Text  string
	Font  Font
}

// Bounds returns the normalized box spanned by Start and End.
func (o Object) Bounds() geometry.Rect { return geometry.Normalize(o.Start, o.End) }

// Local returns a copy of o expressed relative to origin.
func (o Object) Local(origin geometry.Point) Object {
	o.Start = o.Start.Sub(origin)
	o.End = o.End.Sub(origin)
	return o
}

// Degenerate reports whether a shape has zero extent.
func (o Object) Degenerate() bool { return o.Kind != KindText && o.Start == o.End }

// ParseColor parses "#rrggbb", "#rgb" or "rrggbb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c color.RGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }
