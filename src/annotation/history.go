package annotation

// History keeps applied objects in z-order and undone objects on a redo
// stack. An object is in exactly one of the two slices or in neither.
//
// Appending after an undo leaves the redo stack untouched, so a later redo
// brings back the undone object on top of the newer one.
type History struct {
	objects []Object
	redo    []Object
}

// Append adds o as the topmost object.
func (h *History) Append(o Object) { h.objects = append(h.objects, o) }

// Undo moves the newest object to the redo stack.
func (h *History) Undo() (Object, bool) {
	if len(h.objects) == 0 {
		return Object{}, false
	}
	o := h.objects[len(h.objects)-1]
	h.objects = h.objects[:len(h.objects)-1]
	h.redo = append(h.redo, o)
	return o, true
}

// Redo moves the most recently undone object back on top.
func (h *History) Redo() (Object, bool) {
	if len(h.redo) == 0 {
		return Object{}, false
	}
	o := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.objects = append(h.objects, o)
	return o, true
}

// Objects returns a copy of the applied objects, oldest first.
func (h *History) Objects() []Object {
	out := make([]Object, len(h.objects))
	copy(out, h.objects)
	return out
}

func (h *History) Len() int     { return len(h.objects) }
func (h *History) RedoLen() int { return len(h.redo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.objects = nil
	h.redo = nil
}
