package gui

import (
	"image"
	"log"
	"time"
	"unicode"

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/selection"
)

// Action says what the user asked to do with a capture. ActionNone leaves
// it to the configured auto-save and auto-copy defaults.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionCopy
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionCopy:
		return "copy"
	default:
		return "default"
	}
}

// Result is a finished capture session.
type Result struct {
	Artifact *canvas.Artifact
	Action   Action
	// Magnifier is the magnifier toggle when the session ended, set for
	// cancelled sessions too.
	Magnifier bool
}

// Window is what the controller needs from the overlay window. Rects and
// points are in frame coordinates.
type Window interface {
	// Invalidate schedules r of the engine frame for repaint.
	Invalidate(r geometry.Rect)
	// SetVisible hides the overlay around a live capture.
	SetVisible(visible bool)
	ShowMagnifier(frame *image.RGBA, at geometry.Point)
	HideMagnifier()
	// Close ends the session's message loop.
	Close()
}

// Notifier shows a short message to the user.
type Notifier func(title, message string)

// Controller turns window events into engine calls. It is driven from the
// window's thread only.
type Controller struct {
	engine *canvas.Engine
	win    Window
	notify Notifier

	text []rune

	done      bool
	cancelled bool
	result    Result
}

// NewController binds engine to win. notify may be nil.
func NewController(engine *canvas.Engine, win Window, notify Notifier) *Controller {
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Controller{engine: engine, win: win, notify: notify}
}

// Done reports whether the session is over, and how it ended.
func (c *Controller) Done() (res Result, cancelled, done bool) {
	return c.result, c.cancelled, c.done
}

func (c *Controller) PointerDown(p geometry.PointF) {
	c.text = c.text[:0]
	c.invalidate(c.engine.PointerDown(p))
}

func (c *Controller) PointerMove(p geometry.PointF) {
	c.invalidate(c.engine.PointerMove(p))
	c.syncMagnifier()
}

func (c *Controller) PointerUp(p geometry.PointF) {
	c.invalidate(c.engine.PointerUp(p))
}

// Char feeds a typed character to an open text input.
func (c *Controller) Char(r rune) {
	if _, open := c.engine.PendingText(); !open || unicode.IsControl(r) {
		return
	}
	c.text = append(c.text, r)
	c.invalidate(c.engine.SetDraft(string(c.text)))
}

// Key handles a keyboard command and reports whether it did anything.
func (c *Controller) Key(k Key) bool {
	if c.done || k == KeyNone {
		return false
	}
	if _, open := c.engine.PendingText(); open {
		return c.textKey(k)
	}
	if c.engine.Previewing() {
		return c.previewKey(k)
	}

	switch k {
	case KeyEscape:
		c.engine.Cancel()
		c.finish(Result{}, true)
	case KeyEnter:
		return c.capture(ActionNone)
	case KeySave:
		return c.capture(ActionSave)
	case KeyCopy:
		return c.capture(ActionCopy)
	case KeyMagnifier:
		on := c.engine.ToggleMagnifier()
		log.Printf("OVERLAY: magnifier %v", on)
		c.syncMagnifier()
	case KeyUndo:
		c.invalidate(c.engine.Undo())
	case KeyRedo:
		c.invalidate(c.engine.Redo())
	default:
		t, ok := k.Tool()
		if !ok {
			return false
		}
		c.engine.SetTool(t)
		log.Printf("OVERLAY: tool %s", t)
	}
	return true
}

// Tick drives the idle timeout. It ends the session when it fires.
func (c *Controller) Tick(now time.Time) {
	if c.done {
		return
	}
	if c.engine.Tick(now) {
		c.notify("Capture cancelled", "The capture session timed out.")
		c.finish(Result{}, true)
	}
}

func (c *Controller) textKey(k Key) bool {
	switch k {
	case KeyEnter:
		c.invalidate(c.engine.CommitText(string(c.text)))
	case KeyEscape:
		c.invalidate(c.engine.DiscardText())
	case KeyBackspace:
		if len(c.text) == 0 {
			return false
		}
		c.text = c.text[:len(c.text)-1]
		c.invalidate(c.engine.SetDraft(string(c.text)))
		return true
	default:
		return false
	}
	c.text = c.text[:0]
	return true
}

func (c *Controller) previewKey(k Key) bool {
	switch k {
	case KeyEnter:
		c.keep(ActionNone)
	case KeySave:
		c.keep(ActionSave)
	case KeyCopy:
		c.keep(ActionCopy)
	case KeyRetry:
		c.invalidate(c.engine.Retry())
	case KeyEscape:
		c.engine.Cancel()
		c.finish(Result{}, true)
	default:
		return false
	}
	return true
}

// capture grabs the selection with the overlay hidden. Save and copy
// finish the session at once; a plain confirm shows the preview first.
func (c *Controller) capture(action Action) bool {
	if c.engine.Phase() != selection.Selected {
		return false
	}
	c.win.HideMagnifier()
	c.win.SetVisible(false)
	art, err := c.engine.Confirm()
	c.win.SetVisible(true)
	c.invalidate(geometry.FromImage(c.engine.Frame().Bounds()))
	if err != nil {
		log.Printf("OVERLAY: capture failed: %v", err)
		c.notify("Capture failed", err.Error())
		return true
	}
	if action != ActionNone {
		c.keep(action)
	}
	log.Printf("OVERLAY: captured %dx%d", art.Width(), art.Height())
	return true
}

func (c *Controller) keep(action Action) {
	art, ok := c.engine.Keep()
	if !ok {
		return
	}
	c.finish(Result{Artifact: art, Action: action}, false)
}

func (c *Controller) finish(res Result, cancelled bool) {
	res.Magnifier = c.engine.Magnifier().Enabled()
	c.result = res
	c.cancelled = cancelled
	c.done = true
	c.win.HideMagnifier()
	c.win.Close()
}

func (c *Controller) invalidate(r geometry.Rect) {
	if !r.Empty() {
		c.win.Invalidate(r)
	}
}

func (c *Controller) syncMagnifier() {
	m := c.engine.Magnifier()
	if !m.Enabled() || m.Frame() == nil || c.engine.Previewing() {
		c.win.HideMagnifier()
		return
	}
	c.win.ShowMagnifier(m.Frame(), m.Position().Sub(c.engine.Desktop().Min()))
}
