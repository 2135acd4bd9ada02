// Package tray owns the notification-area icon and its menu.
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Config wires menu items to the event loop. Callbacks run on the tray's
// goroutine and should only post requests.
type Config struct {
	Title      string
	Tooltip    string
	OnCapture  func()
	OnSaveLast func()
	OnCopyLast func()
	OnExit     func()
}

// Tray is the running tray icon.
type Tray struct {
	cfg Config
}

var (
	mu       sync.Mutex
	ready    bool
	saveLast *systray.MenuItem
	copyLast *systray.MenuItem
)

func New(cfg Config) (*Tray, error) {
	return &Tray{cfg: cfg}, nil
}

// Run blocks running the tray until Destroy or the Quit item.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the icon.
func (t *Tray) Destroy() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture", "Select an area of the screen")
	systray.AddSeparator()
	mSave := systray.AddMenuItem("Save last capture", "Save the most recent capture again")
	mCopy := systray.AddMenuItem("Copy last capture", "Copy the most recent capture again")
	mSave.Disable()
	mCopy.Disable()
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	mu.Lock()
	ready = true
	saveLast, copyLast = mSave, mCopy
	mu.Unlock()
	log.Printf("Tray: ready")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				call(t.cfg.OnCapture)
			case <-mSave.ClickedCh:
				call(t.cfg.OnSaveLast)
			case <-mCopy.ClickedCh:
				call(t.cfg.OnCopyLast)
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	mu.Lock()
	ready = false
	saveLast, copyLast = nil, nil
	mu.Unlock()
	log.Printf("Tray: exit")
	call(t.cfg.OnExit)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// UpdateTooltip changes the tooltip once the tray is running.
func UpdateTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		systray.SetTooltip(text)
	}
}

// SetLastAvailable enables the save-last and copy-last items.
func SetLastAvailable(available bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, item := range []*systray.MenuItem{saveLast, copyLast} {
		if item == nil {
			continue
		}
		if available {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}
