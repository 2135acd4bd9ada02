package gui

import "screen-capture-tool/src/annotation"

// Key is a keyboard command understood by the overlay.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeySave
	KeyCopy
	KeyMagnifier
	KeyUndo
	KeyRedo
	KeyRetry
	KeyToolLine
	KeyToolRect
	KeyToolEllipse
	KeyToolArrow
	KeyToolText
)

// Windows virtual-key codes for the keys the overlay handles.
const (
	vkBack   = 0x08
	vkReturn = 0x0D
	vkEscape = 0x1B
)

var plainKeys = map[uint32]Key{
	vkEscape: KeyEscape,
	vkReturn: KeyEnter,
	vkBack:   KeyBackspace,
	'R':      KeyRetry,
	'1':      KeyToolLine,
	'2':      KeyToolRect,
	'3':      KeyToolEllipse,
	'4':      KeyToolArrow,
	'5':      KeyToolText,
}

var ctrlKeys = map[uint32]Key{
	'S': KeySave,
	'C': KeyCopy,
	'M': KeyMagnifier,
	'Z': KeyUndo,
	'Y': KeyRedo,
}

// TranslateKey maps a virtual-key code and the Ctrl state to a Key.
func TranslateKey(vk uint32, ctrl bool) Key {
	if ctrl {
		return ctrlKeys[vk]
	}
	return plainKeys[vk]
}

// Tool returns the annotation tool a tool key selects.
func (k Key) Tool() (annotation.Tool, bool) {
	switch k {
	case KeyToolLine:
		return annotation.ToolLine, true
	case KeyToolRect:
		return annotation.ToolRect, true
	case KeyToolEllipse:
		return annotation.ToolEllipse, true
	case KeyToolArrow:
		return annotation.ToolArrow, true
	case KeyToolText:
		return annotation.ToolText, true
	}
	return 0, false
}
