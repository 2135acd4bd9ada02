// Package export persists capture artifacts to files and the clipboard.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSaveFailed wraps any failure to write an image file.
var ErrSaveFailed = errors.New("save failed")

// DefaultPrefix starts generated file names.
const DefaultPrefix = "screenshot"

// ImageWriter puts an image somewhere other than a file, normally the
// system clipboard.
type ImageWriter interface {
	WriteImage(img image.Image) error
}

// DefaultFilename returns "<prefix>_YYYYMMDD_HHMMSS.png" for t.
func DefaultFilename(prefix string, t time.Time) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.png", prefix, t.Format("20060102_150405"))
}

// WithPNGExt appends ".png" unless path already ends with it in any case.
func WithPNGExt(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return path
	}
	return path + ".png"
}

// Save writes img as PNG to path, adding the extension when missing, and
// returns the path written. Missing parent directories are created.
func Save(img image.Image, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrSaveFailed)
	}
	path = WithPNGExt(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: encode %s: %v", ErrSaveFailed, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	log.Printf("Export: saved %dx%d image to %s", img.Bounds().Dx(), img.Bounds().Dy(), path)
	return path, nil
}

// SaveDefault saves img under dir with a generated name.
func SaveDefault(img image.Image, dir, prefix string, now time.Time) (string, error) {
	return Save(img, filepath.Join(dir, DefaultFilename(prefix, now)))
}

// Copy hands img to w, normally the system clipboard.
func Copy(w ImageWriter, img image.Image) error {
	if err := w.WriteImage(img); err != nil {
		log.Printf("Export: clipboard copy failed: %v", err)
		return err
	}
	log.Printf("Export: copied %dx%d image to clipboard", img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
