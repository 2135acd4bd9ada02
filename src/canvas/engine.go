// Package canvas is the capture session engine. It routes pointer and key
// input to the selection machine and the annotation model, keeps the
// overlay frame current, and produces the final composited artifact.
//
// An Engine is owned by one UI thread and is not safe for concurrent use.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/logutil"
	"screen-capture-tool/src/magnifier"
	"screen-capture-tool/src/render"
	"screen-capture-tool/src/screenshot"
	"screen-capture-tool/src/selection"
)

// ErrNoSelection is returned by Confirm when no selection is finalized.
var ErrNoSelection = errors.New("no selection to capture")

// CursorFunc reports the pointer position in desktop space.
type CursorFunc func() (geometry.Point, bool)

// Option configures an Engine.
type Option func(*Engine)

// WithCursor sets the cursor query used when IncludeCursor is on.
func WithCursor(fn CursorFunc) Option { return func(e *Engine) { e.cursor = fn } }

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithFaces shares a face cache between engines.
func WithFaces(faces *render.FaceCache) Option { return func(e *Engine) { e.faces = faces } }

// Engine drives one capture session over a frozen desktop background.
type Engine struct {
	id       string
	source   screenshot.Service
	settings Settings
	desktop  geometry.Rect

	sel       *selection.Machine
	model     *annotation.Model
	tool      annotation.Tool
	drawing   bool
	overlay   *render.Overlay
	magnifier *magnifier.Magnifier
	faces     *render.FaceCache
	artifact  *Artifact
	preview   bool
	draft     string

	cursor       CursorFunc
	now          func() time.Time
	lastActivity time.Time
}

// New freezes the current desktop from source and returns an idle engine.
func New(source screenshot.Service, settings Settings, opts ...Option) (*Engine, error) {
	desktop, err := screenshot.VirtualBounds(source)
	if err != nil {
		return nil, err
	}
	background, err := source.Capture(desktop)
	if err != nil {
		return nil, fmt.Errorf("failed to capture desktop background: %w", err)
	}

	e := &Engine{
		id:       uuid.NewString(),
		source:   source,
		settings: settings,
		desktop:  desktop,
		sel:      selection.New(),
		model:    annotation.NewModel(settings.Palette),
		tool:     annotation.ToolLine,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.faces == nil {
		e.faces = render.NewFaceCache(0)
	}
	e.overlay = render.NewOverlay(background, desktop.Min(), settings.Overlay, e.faces)
	e.magnifier = magnifier.New(source, desktop, settings.MagnifierSize, settings.MagnifierZoom)
	e.magnifier.SetEnabled(settings.ShowMagnifier)
	e.lastActivity = e.now()

	log.Printf("OVERLAY: session %s started over desktop %v", e.id, desktop)
	return e, nil
}

func (e *Engine) ID() string                      { return e.id }
func (e *Engine) Desktop() geometry.Rect          { return e.desktop }
func (e *Engine) Phase() selection.Phase          { return e.sel.Phase() }
func (e *Engine) Tool() annotation.Tool           { return e.tool }
func (e *Engine) Objects() []annotation.Object    { return e.model.Objects() }
func (e *Engine) Magnifier() *magnifier.Magnifier { return e.magnifier }
func (e *Engine) Settings() Settings              { return e.settings }

// Frame is the current overlay image. Its (0,0) pixel is Desktop().Min().
func (e *Engine) Frame() *image.RGBA { return e.overlay.Frame() }

// Selection returns the live or finalized selection rect.
func (e *Engine) Selection() (geometry.Rect, bool) { return e.sel.Rect() }

// PendingText reports the anchor of an open text input.
func (e *Engine) PendingText() (geometry.Point, bool) { return e.model.PendingText() }

// Artifact returns the result of the last successful Confirm.
func (e *Engine) Artifact() (*Artifact, bool) { return e.artifact, e.artifact != nil }

// Previewing reports whether the frame shows a captured result waiting to
// be kept or retaken. Pointer input is ignored meanwhile.
func (e *Engine) Previewing() bool { return e.preview }

// SetTool picks the tool for the next stroke.
func (e *Engine) SetTool(t annotation.Tool) {
	e.touch()
	e.tool = t
}

// ToggleMagnifier flips the loupe and returns its new state.
func (e *Engine) ToggleMagnifier() bool {
	e.touch()
	return e.magnifier.Toggle()
}

// PointerDown handles a primary-button press. Inside a finalized selection
// it starts an annotation stroke; anywhere else it starts a new selection,
// dropping the previous one and its annotations. The returned rect is the
// repainted frame area.
func (e *Engine) PointerDown(p geometry.PointF) geometry.Rect {
	e.touch()
	if e.preview {
		return geometry.Rect{}
	}
	pt := p.Trunc()
	if r, ok := e.sel.Rect(); ok && e.sel.Phase() == selection.Selected && r.Contains(pt) {
		if _, open := e.model.PendingText(); open {
			e.model.DiscardText()
			e.draft = ""
		}
		e.model.BeginStroke(e.tool, pt)
		e.drawing = e.tool != annotation.ToolText
		return e.redraw()
	}
	if !e.sel.PointerDown(p) {
		return geometry.Rect{}
	}
	e.model.Reset()
	e.drawing = false
	r, _ := e.sel.Rect()
	return e.overlay.Show(r)
}

// PointerMove handles pointer motion with or without a pressed button.
func (e *Engine) PointerMove(p geometry.PointF) geometry.Rect {
	e.touch()
	if e.preview {
		return geometry.Rect{}
	}
	pt := p.Trunc()
	e.magnifier.Update(pt)
	if e.drawing {
		e.model.UpdateStroke(pt)
		return e.redraw()
	}
	if r, ok := e.sel.PointerMove(p); ok {
		return e.overlay.Show(r)
	}
	return geometry.Rect{}
}

// PointerUp handles a primary-button release.
func (e *Engine) PointerUp(p geometry.PointF) geometry.Rect {
	e.touch()
	if e.preview {
		return geometry.Rect{}
	}
	if e.drawing {
		e.drawing = false
		e.model.UpdateStroke(p.Trunc())
		if o, ok := e.model.EndStroke(); ok {
			log.Printf("OVERLAY: session %s added %s #%d", e.id, o.Kind, o.ID)
		}
		return e.redraw()
	}
	switch e.sel.PointerUp(p) {
	case selection.Accepted:
		r, _ := e.sel.Rect()
		log.Printf("OVERLAY: session %s selected %v (%dx%d)", e.id, r, r.Width(), r.Height())
		return e.overlay.Show(r)
	case selection.TooSmall:
		log.Printf("OVERLAY: session %s selection too small, ignoring", e.id)
		return e.overlay.Idle()
	}
	return geometry.Rect{}
}

// CommitText closes the open text input, adding text at its anchor unless
// it is blank.
func (e *Engine) CommitText(text string) geometry.Rect {
	e.touch()
	anchor, open := e.model.PendingText()
	if !open {
		return geometry.Rect{}
	}
	e.draft = ""
	if o, ok := e.model.CommitText(text, anchor); ok {
		log.Printf("OVERLAY: session %s added text #%d %q", e.id, o.ID, logutil.SanitizeForLog(text))
	}
	return e.redraw()
}

// SetDraft shows text at the open input's anchor without committing it.
func (e *Engine) SetDraft(text string) geometry.Rect {
	e.touch()
	if _, open := e.model.PendingText(); !open || text == e.draft {
		return geometry.Rect{}
	}
	e.draft = text
	return e.redraw()
}

// DiscardText closes the open text input without adding anything.
func (e *Engine) DiscardText() geometry.Rect {
	e.touch()
	if _, open := e.model.PendingText(); !open {
		return geometry.Rect{}
	}
	e.model.DiscardText()
	e.draft = ""
	return e.redraw()
}

// Undo removes the newest annotation.
func (e *Engine) Undo() geometry.Rect {
	e.touch()
	if _, ok := e.model.Undo(); !ok {
		return geometry.Rect{}
	}
	return e.redraw()
}

// Redo restores the most recently undone annotation.
func (e *Engine) Redo() geometry.Rect {
	e.touch()
	if _, ok := e.model.Redo(); !ok {
		return geometry.Rect{}
	}
	return e.redraw()
}

// Cancel drops the selection, the annotations and any artifact and returns
// to the idle frame.
func (e *Engine) Cancel() geometry.Rect {
	e.touch()
	e.reset()
	e.artifact = nil
	e.preview = false
	log.Printf("OVERLAY: session %s cancelled", e.id)
	return e.overlay.Idle()
}

// Retry discards the last artifact and starts over from Idle.
func (e *Engine) Retry() geometry.Rect {
	e.touch()
	e.reset()
	e.artifact = nil
	e.preview = false
	log.Printf("OVERLAY: session %s retry", e.id)
	return e.overlay.Idle()
}

// Confirm captures the finalized selection from the live screen, draws the
// annotations and the optional cursor marker on it, resets the selection
// and shows the result as a preview. A capture failure also resets the
// session, back to the idle frame.
func (e *Engine) Confirm() (*Artifact, error) {
	e.touch()
	r, ok := e.sel.Rect()
	if !ok || e.sel.Phase() != selection.Selected {
		return nil, ErrNoSelection
	}
	if e.drawing {
		e.drawing = false
		e.model.EndStroke()
	}

	img, err := e.source.Capture(r)
	if err != nil {
		log.Printf("OVERLAY: session %s capture of %v failed: %v", e.id, r, err)
		e.reset()
		e.overlay.Idle()
		return nil, fmt.Errorf("capture selection %v: %w", r, err)
	}

	objects := e.model.Objects()
	render.Compose(img, r.Min(), objects, e.faces)
	if e.settings.IncludeCursor && e.cursor != nil {
		if p, ok := e.cursor(); ok {
			render.DrawCursor(img, p.Sub(r.Min()))
		}
	}

	e.artifact = &Artifact{pixels: img, rect: r}
	log.Printf("OVERLAY: session %s captured %dx%d with %d annotations", e.id, r.Width(), r.Height(), len(objects))
	e.reset()
	e.preview = true
	e.overlay.Preview(img)
	return e.artifact, nil
}

// Keep ends the preview and hands over the artifact.
func (e *Engine) Keep() (*Artifact, bool) {
	e.touch()
	if !e.preview {
		return nil, false
	}
	e.preview = false
	e.overlay.Idle()
	log.Printf("OVERLAY: session %s kept capture", e.id)
	return e.artifact, true
}

// Tick is driven by the UI timer. It cancels the session once it has been
// idle for the configured timeout and reports whether that happened.
func (e *Engine) Tick(now time.Time) bool {
	timeout := e.settings.SessionTimeout
	if timeout <= 0 || now.Sub(e.lastActivity) < timeout {
		return false
	}
	log.Printf("OVERLAY: session %s idle for %v, cancelling", e.id, now.Sub(e.lastActivity).Round(time.Second))
	e.Cancel()
	return true
}

func (e *Engine) touch() { e.lastActivity = e.now() }

func (e *Engine) reset() {
	e.sel.Cancel()
	e.model.Reset()
	e.drawing = false
	e.draft = ""
}

func (e *Engine) redraw() geometry.Rect {
	r, ok := e.sel.Rect()
	if !ok {
		return geometry.Rect{}
	}
	objects := e.model.Objects()
	if active, ok := e.model.Active(); ok {
		objects = append(objects, active)
	}
	if draft, ok := e.model.Draft(e.draft); ok {
		objects = append(objects, draft)
	}
	return e.overlay.Annotate(r, objects)
}
