package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/geometry"
)

// OverlayStyle controls how the full-screen overlay looks.
type OverlayStyle struct {
	// DimColor is blended over everything outside the selection.
	DimColor color.RGBA
	// DimAlpha is the opacity of DimColor, 0..1.
	DimAlpha float64
	// Stipple limits dimming to a 50% checkerboard.
	Stipple bool

	SelectionColor color.RGBA
	SelectionWidth int
	SelectionDash  [2]int

	LabelColor color.RGBA
	LabelFont  annotation.Font

	ScreenBorderColor color.RGBA
	ScreenBorderWidth int
	ScreenBorderDash  [2]int

	HintColor color.RGBA
	HintFont  annotation.Font
}

// DefaultOverlayStyle returns the stock overlay look.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		DimColor:          color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff},
		DimAlpha:          0.8,
		Stipple:           true,
		SelectionColor:    color.RGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff},
		SelectionWidth:    3,
		SelectionDash:     [2]int{5, 5},
		LabelColor:        color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		LabelFont:         annotation.Font{Size: 10, Bold: true},
		ScreenBorderColor: color.RGBA{R: 0xff, G: 0xd6, B: 0x00, A: 0xff},
		ScreenBorderWidth: 5,
		ScreenBorderDash:  [2]int{12, 6},
		HintColor:         color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		HintFont:          annotation.Font{Size: 10},
	}
}

// Hints are the instruction lines shown before the first press.
var Hints = []string{
	"Click and drag to select an area",
	"Esc to cancel, Enter to capture",
	"Ctrl+S to save, Ctrl+C to copy",
	"Ctrl+Z / Ctrl+Y to undo / redo",
	"1-5 to pick line, rect, ellipse, arrow, text",
	"Ctrl+M to toggle the magnifier",
}

// PreviewHints are shown under a captured result.
var PreviewHints = []string{
	"Enter to keep, R to retake, Esc to discard",
	"Ctrl+S to save, Ctrl+C to copy",
}

const (
	previewFill    = 0.8
	previewBorder  = 2
	previewHintGap = 12

	labelOffsetX = 10
	labelOffsetY = -25
	hintX        = 20
	hintY        = 20
	hintSpacing  = 25
)

// SelectionLabel is the size readout shown next to a selection.
func SelectionLabel(r geometry.Rect) string {
	return fmt.Sprintf("Selection: %d × %d pixels", r.Width(), r.Height())
}

// Overlay renders the full-screen selection frame from a frozen desktop
// background. The background is never written to. After the first
// selection update, each update repaints only the area the previous and
// the new selection decorations cover.
type Overlay struct {
	background *image.RGBA
	origin     geometry.Point
	frame      *image.RGBA
	style      OverlayStyle
	faces      *FaceCache

	decorated geometry.Rect
	active    bool
}

// NewOverlay builds an overlay over background, whose (0,0) pixel sits at
// origin in desktop space. The initial frame is the idle frame.
func NewOverlay(background *image.RGBA, origin geometry.Point, style OverlayStyle, faces *FaceCache) *Overlay {
	b := background.Bounds()
	o := &Overlay{
		background: background,
		origin:     origin,
		frame:      image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
		style:      style,
		faces:      faces,
	}
	o.Idle()
	return o
}

// Frame returns the current frame. Callers must not modify it.
func (o *Overlay) Frame() *image.RGBA { return o.frame }

// Origin is the desktop position of the frame's (0,0) pixel.
func (o *Overlay) Origin() geometry.Point { return o.origin }

func (o *Overlay) full() geometry.Rect { return geometry.FromImage(o.frame.Bounds()) }

// Idle shows the undimmed desktop with the screen border and hints. It
// returns the repainted area in frame coordinates.
func (o *Overlay) Idle() geometry.Rect {
	full := o.full()
	draw.Draw(o.frame, o.frame.Bounds(), o.background, o.background.Bounds().Min, draw.Src)
	s := o.style
	border := geometry.Rect{X1: 1, Y1: 1, X2: full.X2 - 2, Y2: full.Y2 - 2}
	dashedRect(o.frame, border, s.ScreenBorderWidth, s.ScreenBorderDash, s.ScreenBorderColor)
	face := o.faces.Face(s.HintFont)
	for i, line := range Hints {
		DrawText(o.frame, face, geometry.Pt(hintX, hintY+i*hintSpacing), line, s.HintColor)
	}
	o.active = false
	o.decorated = geometry.Rect{}
	return full
}

// Show draws sel (desktop space) with everything outside it dimmed and
// returns the repainted area in frame coordinates.
func (o *Overlay) Show(sel geometry.Rect) geometry.Rect {
	return o.Annotate(sel, nil)
}

// Annotate is Show with objects drawn inside the selection.
func (o *Overlay) Annotate(sel geometry.Rect, objects []annotation.Object) geometry.Rect {
	local := sel.Normalized().Local(o.origin)
	deco := o.decorationBounds(local)
	dirty := deco.Union(o.decorated)
	if !o.active {
		dirty = o.full()
	}
	dirty = dirty.Intersect(o.full())
	o.paint(dirty, local, objects)
	o.decorated = deco
	o.active = true
	return dirty
}

func (o *Overlay) decorationBounds(local geometry.Rect) geometry.Rect {
	w := max(o.style.SelectionWidth, 1)
	deco := geometry.Rect{X1: local.X1 - w, Y1: local.Y1 - w, X2: local.X2 + w, Y2: local.Y2 + w}
	label := TextBounds(o.faces.Face(o.style.LabelFont), labelAnchor(local), SelectionLabel(local))
	return deco.Union(label).Intersect(o.full())
}

func labelAnchor(local geometry.Rect) geometry.Point {
	return geometry.Pt(local.X1+labelOffsetX, local.Y1+labelOffsetY)
}

func (o *Overlay) paint(dirty, sel geometry.Rect, objects []annotation.Object) {
	if dirty.Empty() {
		return
	}
	o.paintBase(dirty, sel)
	sub := o.frame.SubImage(dirty.Image()).(*image.RGBA)
	if inner := sel.Intersect(dirty); !inner.Empty() && len(objects) > 0 {
		clip := o.frame.SubImage(inner.Image()).(*image.RGBA)
		Compose(clip, o.origin, objects, o.faces)
	}
	s := o.style
	dashedRect(sub, sel, s.SelectionWidth, s.SelectionDash, s.SelectionColor)
	DrawText(sub, o.faces.Face(s.LabelFont), labelAnchor(sel), SelectionLabel(sel), s.LabelColor)
}

// Preview shows img centered over the fully dimmed desktop, scaled down to
// fit when it is larger than most of the frame. It returns the repainted area.
func (o *Overlay) Preview(img image.Image) geometry.Rect {
	full := o.full()
	o.paintBase(full, geometry.Rect{})
	s := o.style

	box := PreviewBox(geometry.FromImage(img.Bounds()), full)
	frame := geometry.Rect{X1: box.X1 - previewBorder, Y1: box.Y1 - previewBorder, X2: box.X2 + previewBorder, Y2: box.Y2 + previewBorder}
	draw.Draw(o.frame, frame.Image(), image.NewUniform(s.SelectionColor), image.Point{}, draw.Src)
	if box.Width() == img.Bounds().Dx() && box.Height() == img.Bounds().Dy() {
		draw.Draw(o.frame, box.Image(), img, img.Bounds().Min, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(o.frame, box.Image(), img, img.Bounds(), xdraw.Src, nil)
	}

	face := o.faces.Face(s.HintFont)
	y := min(frame.Y2+previewHintGap, full.Y2-len(PreviewHints)*hintSpacing)
	for i, line := range PreviewHints {
		DrawText(o.frame, face, geometry.Pt(frame.X1, y+i*hintSpacing), line, s.HintColor)
	}
	o.active = false
	o.decorated = geometry.Rect{}
	return full
}

// PreviewBox fits a size-of-src box centered inside bounds, shrinking it
// to previewFill of bounds while keeping the aspect ratio.
func PreviewBox(src, bounds geometry.Rect) geometry.Rect {
	w, h := src.Width(), src.Height()
	maxW := int(float64(bounds.Width()) * previewFill)
	maxH := int(float64(bounds.Height()) * previewFill)
	if w > maxW || h > maxH {
		scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}
	x := bounds.X1 + (bounds.Width()-w)/2
	y := bounds.Y1 + (bounds.Height()-h)/2
	return geometry.FromSize(x, y, w, h)
}

// paintBase copies background pixels inside sel and dimmed pixels outside.
func (o *Overlay) paintBase(dirty, sel geometry.Rect) {
	bg := o.background
	bgMin := bg.Bounds().Min
	s := o.style
	alpha := int(s.DimAlpha*256 + 0.5)
	alpha = max(0, min(alpha, 256))
	dr, dg, db := int(s.DimColor.R), int(s.DimColor.G), int(s.DimColor.B)
	for y := dirty.Y1; y < dirty.Y2; y++ {
		for x := dirty.X1; x < dirty.X2; x++ {
			si := bg.PixOffset(x+bgMin.X, y+bgMin.Y)
			di := o.frame.PixOffset(x, y)
			src := bg.Pix[si : si+4 : si+4]
			dst := o.frame.Pix[di : di+4 : di+4]
			copy(dst, src)
			if sel.Contains(geometry.Pt(x, y)) {
				continue
			}
			if s.Stipple && (x+y)%2 != 0 {
				continue
			}
			dst[0] = uint8((int(src[0])*(256-alpha) + dr*alpha) >> 8)
			dst[1] = uint8((int(src[1])*(256-alpha) + dg*alpha) >> 8)
			dst[2] = uint8((int(src[2])*(256-alpha) + db*alpha) >> 8)
		}
	}
}

// dashedRect outlines r with dashes of on/off pixels, the stroke centered
// on r's edges.
func dashedRect(dst draw.Image, r geometry.Rect, width int, dash [2]int, c color.Color) {
	if width <= 0 {
		return
	}
	src := image.NewUniform(c)
	off := width / 2
	on, gap := max(dash[0], 1), max(dash[1], 0)
	hline := func(x1, x2, y int) {
		for x := x1; x < x2; x += on + gap {
			seg := image.Rect(x, y-off, min(x+on, x2), y-off+width)
			draw.Draw(dst, seg, src, image.Point{}, draw.Src)
		}
	}
	vline := func(y1, y2, x int) {
		for y := y1; y < y2; y += on + gap {
			seg := image.Rect(x-off, y, x-off+width, min(y+on, y2))
			draw.Draw(dst, seg, src, image.Point{}, draw.Src)
		}
	}
	hline(r.X1-off, r.X2-off+width, r.Y1)
	hline(r.X1-off, r.X2-off+width, r.Y2)
	vline(r.Y1-off, r.Y2-off+width, r.X1)
	vline(r.Y1-off, r.Y2-off+width, r.X2)
}
