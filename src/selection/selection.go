// Package selection tracks the drag lifecycle of a single rectangular
// capture region: Idle -> Dragging -> Selected, cancellable from any phase.
package selection

import (
	"screen-capture-tool/src/geometry"
)

// MinSelectionSpan is the smallest width and height accepted on release.
// Anything smaller is treated as an accidental click.
const MinSelectionSpan = 5

type Phase int

const (
	Idle Phase = iota
	Dragging
	Selected
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Selected:
		return "selected"
	default:
		return "idle"
	}
}

// Outcome describes what a pointer release did to the session.
type Outcome int

const (
	// Ignored means the release arrived outside Dragging.
	Ignored Outcome = iota
	// Accepted means the session moved to Selected.
	Accepted
	// TooSmall means the rect failed MinSelectionSpan and the session reset to Idle.
	TooSmall
)

// Machine owns the selection session. It is not safe for concurrent use;
// all calls are expected from the UI thread.
type Machine struct {
	phase   Phase
	origin  geometry.PointF
	current geometry.Rect
	hasRect bool
}

func New() *Machine { return &Machine{} }

func (m *Machine) Phase() Phase { return m.phase }

// Origin returns the pointer-down position of the current session.
func (m *Machine) Origin() geometry.PointF { return m.origin }

// Rect returns the live (while dragging) or final (when selected) rect.
// The rect is always normalized.
func (m *Machine) Rect() (geometry.Rect, bool) { return m.current, m.hasRect }

// PointerDown starts a new drag at p. It is valid from Idle and Selected and
// discards any previous selection. Returns false when ignored.
func (m *Machine) PointerDown(p geometry.PointF) bool {
	if m.phase == Dragging {
		return false
	}
	m.origin = p
	m.current = geometry.NormalizeF(p, p)
	m.hasRect = true
	m.phase = Dragging
	return true
}

// PointerMove updates the live rect while dragging.
func (m *Machine) PointerMove(p geometry.PointF) (geometry.Rect, bool) {
	if m.phase != Dragging {
		return geometry.Rect{}, false
	}
	m.current = geometry.NormalizeF(m.origin, p)
	return m.current, true
}

// PointerUp finalizes the drag. The rect is truncated to integers and must
// be at least MinSelectionSpan in both directions.
func (m *Machine) PointerUp(p geometry.PointF) Outcome {
	if m.phase != Dragging {
		return Ignored
	}
	r := geometry.NormalizeF(m.origin, p)
	if r.Width() < MinSelectionSpan || r.Height() < MinSelectionSpan {
		m.reset()
		return TooSmall
	}
	m.current = r
	m.phase = Selected
	return Accepted
}

// Cancel returns to Idle from any phase.
func (m *Machine) Cancel() { m.reset() }

func (m *Machine) reset() {
	m.phase = Idle
	m.origin = geometry.PointF{}
	m.current = geometry.Rect{}
	m.hasRect = false
}

// OutsideBands splits bounds minus r into top, bottom, left and right bands.
// r is clipped to bounds first; bands may be empty.
func OutsideBands(bounds, r geometry.Rect) [4]geometry.Rect {
	r = r.Intersect(bounds)
	return [4]geometry.Rect{
		{X1: bounds.X1, Y1: bounds.Y1, X2: bounds.X2, Y2: r.Y1},
		{X1: bounds.X1, Y1: r.Y2, X2: bounds.X2, Y2: bounds.Y2},
		{X1: bounds.X1, Y1: r.Y1, X2: r.X1, Y2: r.Y2},
		{X1: r.X2, Y1: r.Y1, X2: bounds.X2, Y2: r.Y2},
	}
}
