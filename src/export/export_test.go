package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilename(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 2, 0, time.Local)
	assert.Equal(t, "screenshot_20240307_090502.png", DefaultFilename("screenshot", ts))
	assert.Equal(t, "shot_20240307_090502.png", DefaultFilename("shot", ts))
	assert.Equal(t, "screenshot_20240307_090502.png", DefaultFilename(" ", ts))
}

func TestWithPNGExt(t *testing.T) {
	assert.Equal(t, "a.png", WithPNGExt("a"))
	assert.Equal(t, "a.PNG", WithPNGExt("a.PNG"))
	assert.Equal(t, "a.jpg.png", WithPNGExt("a.jpg"))
}

func TestSaveRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	dir := t.TempDir()
	path, err := Save(img, filepath.Join(dir, "nested", "capture"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "capture.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, g, b, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestSaveFailure(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	_, err := Save(img, "")
	assert.ErrorIs(t, err, ErrSaveFailed)

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	_, err = Save(img, filepath.Join(blocker, "out.png"))
	assert.ErrorIs(t, err, ErrSaveFailed)
}

func TestSaveDefault(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	path, err := SaveDefault(img, t.TempDir(), "", ts)
	require.NoError(t, err)
	assert.Equal(t, "screenshot_20240102_030405.png", filepath.Base(path))
}

type fakeClipboard struct {
	err  error
	last image.Image
}

func (f *fakeClipboard) WriteImage(img image.Image) error {
	if f.err != nil {
		return f.err
	}
	f.last = img
	return nil
}

func TestCopy(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	cb := &fakeClipboard{}
	require.NoError(t, Copy(cb, img))
	assert.Same(t, img, cb.last)

	cb.err = errors.New("busy")
	assert.Error(t, Copy(cb, img))
}
