package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/geometry"
)

const defaultFaceCacheSize = 16

type faceKey struct {
	size float64
	bold bool
}

// FaceCache hands out font faces by size and weight. Faces are parsed from
// the bundled Go fonts and kept in a small LRU. When parsing fails the
// fixed 7x13 bitmap face is used.
type FaceCache struct {
	once    sync.Once
	regular *opentype.Font
	bold    *opentype.Font
	faces   *lru.Cache[faceKey, font.Face]
}

// NewFaceCache creates a cache holding up to size faces.
func NewFaceCache(size int) *FaceCache {
	if size <= 0 {
		size = defaultFaceCacheSize
	}
	faces, err := lru.New[faceKey, font.Face](size)
	if err != nil {
		log.Printf("render: face cache disabled: %v", err)
	}
	return &FaceCache{faces: faces}
}

func (c *FaceCache) load() {
	var err error
	if c.regular, err = opentype.Parse(goregular.TTF); err != nil {
		log.Printf("render: failed to parse regular font: %v", err)
	}
	if c.bold, err = opentype.Parse(gobold.TTF); err != nil {
		log.Printf("render: failed to parse bold font: %v", err)
	}
}

// Face returns the face for f.
func (c *FaceCache) Face(f annotation.Font) font.Face {
	if c == nil {
		return basicfont.Face7x13
	}
	c.once.Do(c.load)
	size := f.Size
	if size <= 0 {
		size = 14
	}
	key := faceKey{size: size, bold: f.Bold}
	if c.faces != nil {
		if face, ok := c.faces.Get(key); ok {
			return face
		}
	}
	src := c.regular
	if f.Bold {
		src = c.bold
	}
	if src == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("render: failed to create face size=%v bold=%v: %v", size, f.Bold, err)
		return basicfont.Face7x13
	}
	if c.faces != nil {
		c.faces.Add(key, face)
	}
	return face
}

// DrawText draws s with its top-left corner at p. Newlines start a new line;
// there is no wrapping.
func DrawText(dst draw.Image, face font.Face, p geometry.Point, s string, c color.Color) {
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (m.Ascent + m.Descent).Ceil()
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	for i, line := range strings.Split(s, "\n") {
		d.Dot = fixed.P(p.X, p.Y+m.Ascent.Ceil()+i*lineHeight)
		d.DrawString(line)
	}
}

// TextBounds returns the box DrawText would cover for s anchored at p.
func TextBounds(face font.Face, p geometry.Point, s string) geometry.Rect {
	m := face.Metrics()
	lineHeight := m.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (m.Ascent + m.Descent).Ceil()
	}
	lines := strings.Split(s, "\n")
	width := 0
	for _, line := range lines {
		width = max(width, font.MeasureString(face, line).Ceil())
	}
	height := (len(lines)-1)*lineHeight + (m.Ascent + m.Descent).Ceil()
	return geometry.FromSize(p.X, p.Y, width, height)
}
