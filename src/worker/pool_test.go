package worker

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	got image.Image
	err error
}

func (f *fakeClipboard) WriteImage(img image.Image) error {
	f.got = img
	return f.err
}

func TestRunSavesAndCopies(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	cb := &fakeClipboard{}

	res := Run(Job{
		Image:     img,
		SaveDir:   dir,
		Prefix:    "shot",
		Save:      true,
		Copy:      true,
		Clipboard: cb,
		Now:       time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC),
	})
	require.NoError(t, res.Err())
	assert.Equal(t, filepath.Join(dir, "shot_20240309_080706.png"), res.Path)
	_, err := os.Stat(res.Path)
	assert.NoError(t, err)
	assert.Same(t, img, cb.got)
}

func TestRunKeepsFailuresSeparate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	cb := &fakeClipboard{err: errors.New("locked")}

	res := Run(Job{Image: img, SaveDir: t.TempDir(), Save: true, Copy: true, Clipboard: cb})
	assert.NoError(t, res.SaveErr, "save still happens")
	assert.NotEmpty(t, res.Path)
	assert.EqualError(t, res.CopyErr, "locked")
	assert.Equal(t, res.CopyErr, res.Err())

	res = Run(Job{Image: img, Copy: true})
	assert.ErrorIs(t, res.CopyErr, errNoClipboard)
}

func TestSubmitBackPressure(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := newPool(1, func(Job) Result {
		started <- struct{}{}
		<-release
		return Result{Path: "done"}
	})

	results := make(chan Result, 2)
	cb := func(r Result) { results <- r }
	job := Job{Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}

	require.True(t, p.Submit(context.Background(), job, cb))
	<-started
	require.True(t, p.Submit(context.Background(), job, cb), "one job may wait in the queue")
	assert.False(t, p.Submit(context.Background(), job, cb), "queue full")

	close(release)
	assert.Equal(t, "done", (<-results).Path)
	assert.Equal(t, "done", (<-results).Path)
	p.Close()
}

func TestDeadlineStopsWaiting(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := newPool(1, func(Job) Result {
		<-release
		return Result{}
	})
	defer func() { go p.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	results := make(chan Result, 1)
	job := Job{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), Save: true}
	require.True(t, p.Submit(ctx, job, func(r Result) { results <- r }))

	select {
	case r := <-results:
		assert.ErrorIs(t, r.SaveErr, context.DeadlineExceeded)
		assert.NoError(t, r.CopyErr)
	case <-time.After(2 * time.Second):
		t.Fatal("deadline not honored")
	}
}
