// Package hotkey registers the global capture shortcut.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Windows virtual-key codes; modifiers list both left and right variants.
var rawcodes = func() map[string][]uint16 {
	m := map[string][]uint16{
		"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
		"alt":   {164, 165}, // VK_LMENU, VK_RMENU
		"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
		"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

		"space":       {32},
		"enter":       {13},
		"esc":         {27},
		"tab":         {9},
		"backspace":   {8},
		"delete":      {46},
		"insert":      {45},
		"home":        {36},
		"end":         {35},
		"pageup":      {33},
		"pagedown":    {34},
		"left":        {37},
		"up":          {38},
		"right":       {39},
		"down":        {40},
		"printscreen": {44},
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = []uint16{uint16(c - 'a' + 65)}
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = []uint16{uint16(c - '0' + 48)}
	}
	for i := 1; i <= 24; i++ {
		m[fmt.Sprintf("f%d", i)] = []uint16{uint16(111 + i)}
	}
	return m
}()

var aliases = map[string]string{
	"control": "ctrl",
	"win":     "cmd",
	"super":   "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
	"prtsc":   "printscreen",
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if alias, ok := aliases[part]; ok {
			part = alias
		}
		keys = append(keys, part)
	}
	return keys
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := aliases[keyName]; ok {
		keyName = alias
	}
	return rawcodes[keyName]
}

// Validate reports whether every key in combo is known.
func Validate(combo string) error {
	_, err := newCombo(combo)
	return err
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// combo tracks which keys of one hotkey are currently held.
type combo struct {
	mu   sync.Mutex
	keys []keyState
}

func newCombo(hotkeyConfig string) (*combo, error) {
	c := &combo{}
	for _, name := range parseHotkey(hotkeyConfig) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("unknown key %q in hotkey %q", name, hotkeyConfig)
		}
		c.keys = append(c.keys, keyState{name: name, rawcodes: codes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", hotkeyConfig)
	}
	return c, nil
}

// press records a key down and reports whether the whole combination is
// now held. A completed combination resets so it fires once per press.
func (c *combo) press(rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(rawcode, true)
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

func (c *combo) release(rawcode uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(rawcode, false)
}

func (c *combo) set(rawcode uint16, pressed bool) {
	for i := range c.keys {
		for _, code := range c.keys[i].rawcodes {
			if code == rawcode {
				c.keys[i].pressed = pressed
				break
			}
		}
	}
}

// Listen calls callback from a background goroutine each time the
// combination is pressed. The callback is responsible for handing the
// request to the event loop.
func Listen(hotkeyConfig string, callback func()) error {
	c, err := newCombo(hotkeyConfig)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return err
	}
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				if c.press(ev.Rawcode) {
					log.Printf("Hotkey activated: %s", hotkeyConfig)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				c.release(ev.Rawcode)
			}
		}
		log.Printf("Event channel closed")
	}()
	return nil
}

// Stop ends the global hook started by Listen.
func Stop() { gohook.End() }
