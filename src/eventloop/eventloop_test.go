package eventloop

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

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/config"
	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/gui"
	"screen-capture-tool/src/screenshot"
	"screen-capture-tool/src/singleinstance"
	"screen-capture-tool/src/worker"
)

type fakeSelector struct {
	res       gui.Result
	cancelled bool
	err       error
	calls     int
}

func (f *fakeSelector) Select(ctx context.Context, settings canvas.Settings) (gui.Result, bool, error) {
	f.calls++
	return f.res, f.cancelled, f.err
}

type fakeClipboard struct {
	writes int
	err    error
}

func (f *fakeClipboard) WriteImage(image.Image) error {
	f.writes++
	return f.err
}

type message struct{ title, body string }

type fakeNotifier struct {
	infos  []message
	errors []message
}

func (n *fakeNotifier) Show(title, body string) { n.infos = append(n.infos, message{title, body}) }
func (n *fakeNotifier) ShowError(title, body string) {
	n.errors = append(n.errors, message{title, body})
}

func artifact(t *testing.T) *canvas.Artifact {
	t.Helper()
	src := screenshot.NewImageSource(image.NewRGBA(image.Rect(0, 0, 200, 100)))
	e, err := canvas.New(src, canvas.DefaultSettings())
	require.NoError(t, err)
	e.PointerDown(geometry.PointF{X: 10, Y: 10})
	e.PointerUp(geometry.PointF{X: 60, Y: 40})
	art, err := e.Confirm()
	require.NoError(t, err)
	return art
}

type harness struct {
	loop *Loop
	sel  *fakeSelector
	clip *fakeClipboard
	note *fakeNotifier
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SaveDir = dir
	cfg.Path = filepath.Join(t.TempDir(), "settings.env")
	h := &harness{sel: &fakeSelector{}, clip: &fakeClipboard{}, note: &fakeNotifier{}, dir: dir}
	h.loop = newLoop(cfg, h.sel, worker.New(1), h.clip, h.note)
	h.loop.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	t.Cleanup(h.loop.pool.Close)
	return h
}

// settle waits for the submitted export and handles its result.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	select {
	case r := <-h.loop.results:
		h.loop.handleResult(r)
	case <-time.After(5 * time.Second):
		t.Fatal("export did not finish")
	}
}

func TestCaptureAutoSaves(t *testing.T) {
	h := newHarness(t)
	h.sel.res = gui.Result{Artifact: artifact(t)}

	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.True(t, h.loop.busy)
	h.settle(t)
	assert.False(t, h.loop.busy)

	path := filepath.Join(h.dir, "screenshot_20240506_070809.png")
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, h.clip.writes, "copy is off by default")
	require.Len(t, h.note.infos, 1)
	assert.Equal(t, path, h.note.infos[0].body)
	_, ok := h.loop.Last()
	assert.True(t, ok)
}

func TestCaptureActionOverridesDefaults(t *testing.T) {
	h := newHarness(t)
	h.sel.res = gui.Result{Artifact: artifact(t), Action: gui.ActionCopy}

	h.loop.handleRequest(context.Background(), RequestCapture)
	h.settle(t)
	assert.Equal(t, 1, h.clip.writes)
	entries, _ := os.ReadDir(h.dir)
	assert.Empty(t, entries, "copy only")
}

func TestCaptureWithNothingToDo(t *testing.T) {
	h := newHarness(t)
	h.loop.cfg.AutoSave = false
	h.sel.res = gui.Result{Artifact: artifact(t)}

	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.False(t, h.loop.busy, "no export job")
	_, ok := h.loop.Last()
	assert.True(t, ok, "kept for later")
}

func TestCancelledAndFailedCaptures(t *testing.T) {
	h := newHarness(t)
	h.sel.cancelled = true
	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.Empty(t, h.note.errors)
	_, ok := h.loop.Last()
	assert.False(t, ok)

	h.sel.cancelled = false
	h.sel.err = screenshot.ErrCaptureUnavailable
	h.loop.handleRequest(context.Background(), RequestCapture)
	require.Len(t, h.note.errors, 1)
	assert.Equal(t, "Capture failed", h.note.errors[0].title)
}

func TestCopyFailureKeepsCaptureForRetry(t *testing.T) {
	h := newHarness(t)
	h.clip.err = errors.New("clipboard locked")
	h.sel.res = gui.Result{Artifact: artifact(t), Action: gui.ActionCopy}

	h.loop.handleRequest(context.Background(), RequestCapture)
	h.settle(t)
	require.Len(t, h.note.errors, 1)
	assert.Equal(t, "Copy failed", h.note.errors[0].title)

	h.clip.err = nil
	h.loop.handleRequest(context.Background(), RequestCopyLast)
	h.settle(t)
	assert.Equal(t, 2, h.clip.writes)
	assert.Len(t, h.note.errors, 1)
}

func TestExportLastWithoutCapture(t *testing.T) {
	h := newHarness(t)
	h.loop.handleRequest(context.Background(), RequestSaveLast)
	require.Len(t, h.note.infos, 1)
	assert.Equal(t, "Nothing captured", h.note.infos[0].title)
}

func TestBusyGuard(t *testing.T) {
	h := newHarness(t)
	h.loop.busy = true
	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.Zero(t, h.sel.calls)
	require.Len(t, h.note.infos, 1)
	assert.Equal(t, "Busy", h.note.infos[0].title)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.sel.cancelled = true
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.loop.Run(ctx) }()

	h.loop.Post(RequestCapture)
	require.Eventually(t, func() bool { return len(h.loop.requests) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestCaptureOnceSavesEvenWithoutDefaults(t *testing.T) {
	h := newHarness(t)
	h.loop.cfg.AutoSave = false
	h.sel.res = gui.Result{Artifact: artifact(t)}

	res, cancelled, err := h.loop.CaptureOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Equal(t, filepath.Join(h.dir, "screenshot_20240506_070809.png"), res.Path)
	_, err = os.Stat(res.Path)
	require.NoError(t, err)
}

func TestCaptureOnceCopyFailureAndCancel(t *testing.T) {
	h := newHarness(t)
	h.clip.err = errors.New("clipboard locked")
	h.sel.res = gui.Result{Artifact: artifact(t), Action: gui.ActionCopy}
	_, _, err := h.loop.CaptureOnce(context.Background())
	assert.EqualError(t, err, "clipboard locked")

	h = newHarness(t)
	h.sel.cancelled = true
	_, cancelled, err := h.loop.CaptureOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, cancelled)
}

type fakeConn struct {
	req     singleinstance.Request
	status  string
	payload string
	closed  bool
}

func (c *fakeConn) Request() singleinstance.Request { return c.req }
func (c *fakeConn) RespondSuccess(path string) error {
	c.status, c.payload = "success", path
	return nil
}
func (c *fakeConn) RespondCancelled() error { c.status = "cancelled"; return nil }
func (c *fakeConn) RespondError(msg string) error {
	c.status, c.payload = "error", msg
	return nil
}
func (c *fakeConn) Close() error { c.closed = true; return nil }

func TestRemoteCaptureAnsweredAfterExport(t *testing.T) {
	h := newHarness(t)
	h.loop.cfg.AutoSave = false
	h.sel.res = gui.Result{Artifact: artifact(t)}
	conn := &fakeConn{req: singleinstance.Request{Action: "save"}}

	h.loop.handleRemote(context.Background(), conn)
	assert.False(t, conn.closed, "waits for the export")

	busy := &fakeConn{}
	h.loop.handleRemote(context.Background(), busy)
	assert.Equal(t, "error", busy.status)
	assert.True(t, busy.closed)

	h.settle(t)
	assert.Equal(t, "success", conn.status)
	assert.Equal(t, filepath.Join(h.dir, "screenshot_20240506_070809.png"), conn.payload)
	assert.True(t, conn.closed)
}

func TestRemoteCaptureImmediateAnswers(t *testing.T) {
	h := newHarness(t)
	h.sel.cancelled = true
	conn := &fakeConn{}
	h.loop.handleRemote(context.Background(), conn)
	assert.Equal(t, "cancelled", conn.status)
	assert.True(t, conn.closed)

	h.sel.cancelled = false
	h.sel.err = screenshot.ErrCaptureUnavailable
	conn = &fakeConn{}
	h.loop.handleRemote(context.Background(), conn)
	assert.Equal(t, "error", conn.status)

	h.sel.err = nil
	h.sel.res = gui.Result{Artifact: artifact(t)}
	h.loop.cfg.AutoSave = false
	conn = &fakeConn{}
	h.loop.handleRemote(context.Background(), conn)
	assert.Equal(t, "success", conn.status)
	assert.Empty(t, conn.payload, "kept without export")
}

func TestShutdownAnswersPendingClient(t *testing.T) {
	h := newHarness(t)
	conn := &fakeConn{}
	h.loop.pending = conn
	h.loop.dropPending()
	assert.Equal(t, "error", conn.status)
	assert.True(t, conn.closed)
	assert.Nil(t, h.loop.pending)
}

func TestMagnifierToggleIsSaved(t *testing.T) {
	h := newHarness(t)
	h.sel.cancelled = true
	h.sel.res = gui.Result{Magnifier: !h.loop.cfg.ShowMagnifier}
	want := h.sel.res.Magnifier

	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.Equal(t, want, h.loop.cfg.ShowMagnifier)
	saved, err := config.LoadWithOptions(config.LoadOptions{ConfigPathOverride: h.loop.cfg.Path})
	require.NoError(t, err)
	assert.Equal(t, want, saved.ShowMagnifier)

	saves := 0
	h.loop.persist = func(*config.Config) error { saves++; return nil }
	h.loop.handleRequest(context.Background(), RequestCapture)
	assert.Zero(t, saves, "unchanged toggle is not written")
}
