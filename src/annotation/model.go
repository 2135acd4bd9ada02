package annotation

import (
	"fmt"
	"image/color"
	"strings"

	"screen-capture-tool/src/geometry"
)

// Tool is the drawing tool picked by the user.
type Tool int

const (
	ToolLine Tool = iota
	ToolRect
	ToolEllipse
	ToolArrow
	ToolText
)

var toolNames = map[Tool]string{
	ToolLine:    "line",
	ToolRect:    "rect",
	ToolEllipse: "ellipse",
	ToolArrow:   "arrow",
	ToolText:    "text",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// Kind maps the tool to the object variant it produces.
func (t Tool) Kind() Kind {
	switch t {
	case ToolRect:
		return KindRectangle
	case ToolEllipse:
		return KindEllipse
	case ToolArrow:
		return KindArrow
	case ToolText:
		return KindText
	default:
		return KindLine
	}
}

// ParseTool accepts the tool names used by the CLI and key bindings.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "rectangle":
		return ToolRect, nil
	case "1":
		return ToolLine, nil
	case "2":
		return ToolRect, nil
	case "3":
		return ToolEllipse, nil
	case "4":
		return ToolArrow, nil
	case "5":
		return ToolText, nil
	}
	for t, name := range toolNames {
		if name == s {
			return t, nil
		}
	}
	return ToolLine, fmt.Errorf("unknown tool %q", s)
}

// Palette holds the per-tool styles applied to new objects.
type Palette struct {
	Styles map[Tool]Style
	Font   Font
}

// DefaultPalette returns the stock colors: red lines and arrows, blue
// rectangles, green ellipses and purple bold text.
func DefaultPalette() Palette {
	return Palette{
		Styles: map[Tool]Style{
			ToolLine:    {Color: color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}, Width: 4},
			ToolArrow:   {Color: color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}, Width: 4},
			ToolRect:    {Color: color.RGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}, Width: 4},
			ToolEllipse: {Color: color.RGBA{R: 0x38, G: 0x8e, B: 0x3c, A: 0xff}, Width: 4},
			ToolText:    {Color: color.RGBA{R: 0x6a, G: 0x1b, B: 0x9a, A: 0xff}, Width: 4},
		},
		Font: Font{Size: 14, Bold: true},
	}
}

// Style returns the style for t, falling back to the line style.
func (p Palette) Style(t Tool) Style {
	if s, ok := p.Styles[t]; ok {
		return s
	}
	if s, ok := p.Styles[ToolLine]; ok {
		return s
	}
	return Style{Color: color.RGBA{A: 0xff}, Width: 1}
}

// Model is the mutable annotation set of one capture session: the stroke in
// progress, a pending text input, and the committed history.
type Model struct {
	palette Palette
	history History
	nextID  int

	active   *Object
	textOpen bool
	textAt   geometry.Point
}

// NewModel creates an empty model drawing with palette.
func NewModel(palette Palette) *Model {
	return &Model{palette: palette, nextID: 1}
}

// BeginStroke starts a zero-extent object at p. The Text tool opens a text
// input anchored at p instead; no object exists until CommitText.
// A stroke still in progress is dropped.
func (m *Model) BeginStroke(tool Tool, p geometry.Point) {
	m.active = nil
	if tool == ToolText {
		m.textOpen = true
		m.textAt = p
		return
	}
	m.active = &Object{
		Kind:  tool.Kind(),
		Start: p,
		End:   p,
		Style: m.palette.Style(tool),
	}
}

// UpdateStroke moves the end of the active stroke. It reports false when
// no stroke is active.
func (m *Model) UpdateStroke(p geometry.Point) bool {
	if m.active == nil {
		return false
	}
	m.active.End = p
	return true
}

// EndStroke appends the active stroke and returns it. Zero-length objects
// are kept.
func (m *Model) EndStroke() (Object, bool) {
	if m.active == nil {
		return Object{}, false
	}
	o := *m.active
	m.active = nil
	return m.push(o), true
}

// Active returns a copy of the stroke in progress for live preview.
func (m *Model) Active() (Object, bool) {
	if m.active == nil {
		return Object{}, false
	}
	return *m.active, true
}

// PendingText reports the anchor of an open text input.
func (m *Model) PendingText() (geometry.Point, bool) { return m.textAt, m.textOpen }

// CommitText closes the text input and appends a Text object at p. Empty
// text is discarded and reported as false.
func (m *Model) CommitText(text string, p geometry.Point) (Object, bool) {
	m.textOpen = false
	if text == "" {
		return Object{}, false
	}
	return m.push(m.textObject(text, p)), true
}

// Draft returns the object CommitText would add for text, without adding
// it, so typing can be previewed. It is false when no input is open.
func (m *Model) Draft(text string) (Object, bool) {
	if !m.textOpen || text == "" {
		return Object{}, false
	}
	return m.textObject(text, m.textAt), true
}

func (m *Model) textObject(text string, p geometry.Point) Object {
	return Object{
		Kind:  KindText,
		Start: p,
		End:   p,
		Style: m.palette.Style(ToolText),
		Text:  text,
		Font:  m.palette.Font,
	}
}

// DiscardText closes the text input without adding anything.
func (m *Model) DiscardText() { m.textOpen = false }

// Undo removes the newest object.
func (m *Model) Undo() (Object, bool) { return m.history.Undo() }

// Redo restores the most recently undone object.
func (m *Model) Redo() (Object, bool) { return m.history.Redo() }

// Objects returns the committed objects in draw order.
func (m *Model) Objects() []Object { return m.history.Objects() }

// Len is the number of committed objects.
func (m *Model) Len() int { return m.history.Len() }

// CanRedo reports whether Redo has anything to restore.
func (m *Model) CanRedo() bool { return m.history.RedoLen() > 0 }

// Reset clears every object, the redo stack and any input in progress.
// Ids keep increasing across resets within one model.
func (m *Model) Reset() {
	m.history.Clear()
	m.active = nil
	m.textOpen = false
}

func (m *Model) push(o Object) Object {
	o.ID = m.nextID
	m.nextID++
	m.history.Append(o)
	return o
}
