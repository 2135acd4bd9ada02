package clipboard

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.design/x/clipboard"

	"screen-capture-tool/src/screenshot"
)

// ErrClipboardUnavailable is returned when the system clipboard cannot be
// opened. Callers report it and keep the image for another attempt.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// Init opens the system clipboard once per process.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
		}
	})
	return initErr
}

// WriteImage places img on the clipboard as PNG. Writes are serialized so
// concurrent export jobs cannot interleave.
func WriteImage(img image.Image) error {
	if err := Init(); err != nil {
		return err
	}
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// System is the clipboard as a value, for code that takes a writer.
type System struct{}

func (System) WriteImage(img image.Image) error { return WriteImage(img) }
