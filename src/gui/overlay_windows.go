//go:build windows

package gui

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/screenshot"
)

const (
	overlayTimerID         = 1
	overlayTimerIntervalMs = 25
	// hideSettle lets the desktop repaint before the live capture.
	hideSettle = 150 * time.Millisecond
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")
)

// One overlay at a time; the window procedure finds it here.
var (
	active       *overlayWindow
	wndProcOnce  sync.Once
	wndProcPtr   uintptr
	crossCursor  win.HCURSOR
	classCounter int
)

// dib is a top-down 32-bit BGRA bitmap selected into its own memory DC.
type dib struct {
	dc     win.HDC
	bitmap win.HBITMAP
	old    win.HGDIOBJ
	bits   []byte
	w, h   int
}

func newDIB(ref win.HDC, w, h int) (*dib, error) {
	dc := win.CreateCompatibleDC(ref)
	if dc == 0 {
		return nil, fmt.Errorf("CreateCompatibleDC failed")
	}
	info := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(w),
			BiHeight:      -int32(h), // Negative for top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var pBits unsafe.Pointer
	bm := win.CreateDIBSection(dc, &info.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if bm == 0 || pBits == nil {
		win.DeleteDC(dc)
		return nil, fmt.Errorf("CreateDIBSection %dx%d failed", w, h)
	}
	return &dib{
		dc:     dc,
		bitmap: bm,
		old:    win.SelectObject(dc, win.HGDIOBJ(bm)),
		bits:   unsafe.Slice((*byte)(pBits), w*h*4),
		w:      w,
		h:      h,
	}, nil
}

// load copies r of img (RGBA) into the bitmap (BGRA).
func (d *dib) load(img *image.RGBA, r geometry.Rect) {
	r = r.Intersect(geometry.Rect{X2: d.w, Y2: d.h})
	b := img.Bounds()
	for y := r.Y1; y < r.Y2; y++ {
		src := img.Pix[img.PixOffset(b.Min.X+r.X1, b.Min.Y+y):]
		dst := d.bits[(y*d.w+r.X1)*4:]
		for i := 0; i < r.Width()*4; i += 4 {
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = 0xff
		}
	}
}

func (d *dib) free() {
	win.SelectObject(d.dc, d.old)
	win.DeleteObject(win.HGDIOBJ(d.bitmap))
	win.DeleteDC(d.dc)
}

// overlayWindow is the win32 side of one capture session.
type overlayWindow struct {
	ctx     context.Context
	hwnd    win.HWND
	class   *uint16
	origin  geometry.Point
	engine  *canvas.Engine
	ctrl    *Controller
	surface *dib

	mag        *dib
	magAt      geometry.Point
	magVisible bool

	closed        bool
	escapeWasDown bool
}

// RunSession shows the full-screen overlay over a frozen desktop from
// source and blocks until the user keeps a capture or cancels.
func RunSession(ctx context.Context, source screenshot.Service, settings canvas.Settings, notify Notifier) (Result, bool, error) {
	if active != nil {
		return Result{}, false, ErrBusy
	}
	// Window messages are delivered to the creating thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	engine, err := canvas.New(source, settings, canvas.WithCursor(cursorPos))
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to start capture session: %w", err)
	}
	desktop := engine.Desktop()
	log.Printf("OVERLAY: Virtual screen: x=%d y=%d w=%d h=%d", desktop.X1, desktop.Y1, desktop.Width(), desktop.Height())

	w := &overlayWindow{ctx: ctx, origin: desktop.Min(), engine: engine}
	w.ctrl = NewController(engine, w, notify)
	active = w
	defer func() { active = nil }()

	defer w.destroy()
	if err := w.create(desktop); err != nil {
		return Result{}, false, err
	}

	// Message loop
	var msg win.MSG
	for !w.closed {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			log.Printf("OVERLAY: WM_QUIT received")
			break
		}
		if ret == -1 {
			return Result{}, false, fmt.Errorf("GetMessage failed")
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	res, cancelled, done := w.ctrl.Done()
	if !done {
		return Result{}, true, ctx.Err()
	}
	return res, cancelled, nil
}

func (w *overlayWindow) create(desktop geometry.Rect) error {
	wndProcOnce.Do(func() {
		wndProcPtr = syscall.NewCallback(overlayWndProc)
		crossCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	})

	// Register window class with unique name to avoid conflicts
	classCounter++
	className := syscall.StringToUTF16Ptr(fmt.Sprintf("CaptureOverlay_%d_%d", os.Getpid(), classCounter))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   wndProcPtr,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       crossCursor,
		HbrBackground: 0, // No background brush - we paint ourselves
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return fmt.Errorf("failed to register window class")
	}
	w.class = className

	w.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Screen capture"),
		win.WS_POPUP,
		int32(desktop.X1), int32(desktop.Y1), int32(desktop.Width()), int32(desktop.Height()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if w.hwnd == 0 {
		return fmt.Errorf("failed to create overlay window")
	}

	hdc := win.GetDC(w.hwnd)
	surface, err := newDIB(hdc, desktop.Width(), desktop.Height())
	win.ReleaseDC(w.hwnd, hdc)
	if err != nil {
		return err
	}
	w.surface = surface
	frame := w.engine.Frame()
	w.surface.load(frame, geometry.FromImage(frame.Bounds()))

	win.ShowWindow(w.hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(w.hwnd)
	win.BringWindowToTop(w.hwnd)
	win.SetFocus(w.hwnd)
	win.UpdateWindow(w.hwnd)

	if win.SetTimer(w.hwnd, overlayTimerID, overlayTimerIntervalMs, 0) == 0 {
		log.Printf("OVERLAY: Failed to start timer")
	}
	log.Printf("OVERLAY: Window created, hwnd: %v", w.hwnd)
	return nil
}

func (w *overlayWindow) destroy() {
	if w.hwnd != 0 {
		win.DestroyWindow(w.hwnd)
	}
	if w.surface != nil {
		w.surface.free()
	}
	if w.mag != nil {
		w.mag.free()
	}
	if w.class != nil {
		win.UnregisterClass(w.class)
	}
}

func (w *overlayWindow) Invalidate(r geometry.Rect) {
	w.surface.load(w.engine.Frame(), r)
	rc := win.RECT{Left: int32(r.X1), Top: int32(r.Y1), Right: int32(r.X2), Bottom: int32(r.Y2)}
	win.InvalidateRect(w.hwnd, &rc, false)
}

func (w *overlayWindow) SetVisible(visible bool) {
	if visible {
		win.ShowWindow(w.hwnd, win.SW_SHOW)
		win.SetForegroundWindow(w.hwnd)
		return
	}
	win.ShowWindow(w.hwnd, win.SW_HIDE)
	time.Sleep(hideSettle)
}

func (w *overlayWindow) ShowMagnifier(frame *image.RGBA, at geometry.Point) {
	b := frame.Bounds()
	if w.mag == nil || w.mag.w != b.Dx() || w.mag.h != b.Dy() {
		if w.mag != nil {
			w.mag.free()
			w.mag = nil
		}
		hdc := win.GetDC(w.hwnd)
		mag, err := newDIB(hdc, b.Dx(), b.Dy())
		win.ReleaseDC(w.hwnd, hdc)
		if err != nil {
			log.Printf("Magnifier: %v", err)
			return
		}
		w.mag = mag
	}
	w.mag.load(frame, geometry.FromImage(b))
	w.invalidateMagnifier()
	w.magAt, w.magVisible = at, true
	w.invalidateMagnifier()
}

func (w *overlayWindow) HideMagnifier() {
	if !w.magVisible {
		return
	}
	w.invalidateMagnifier()
	w.magVisible = false
}

func (w *overlayWindow) invalidateMagnifier() {
	if !w.magVisible || w.mag == nil {
		return
	}
	rc := win.RECT{
		Left:   int32(w.magAt.X),
		Top:    int32(w.magAt.Y),
		Right:  int32(w.magAt.X + w.mag.w),
		Bottom: int32(w.magAt.Y + w.mag.h),
	}
	win.InvalidateRect(w.hwnd, &rc, false)
}

func (w *overlayWindow) Close() {
	w.closed = true
	win.PostMessage(w.hwnd, win.WM_NULL, 0, 0)
}

func (w *overlayWindow) paint() {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(w.hwnd, &ps)
	defer win.EndPaint(w.hwnd, &ps)

	rc := ps.RcPaint
	win.BitBlt(hdc, rc.Left, rc.Top, rc.Right-rc.Left, rc.Bottom-rc.Top, w.surface.dc, rc.Left, rc.Top, win.SRCCOPY)
	if w.magVisible && w.mag != nil {
		win.BitBlt(hdc, int32(w.magAt.X), int32(w.magAt.Y), int32(w.mag.w), int32(w.mag.h), w.mag.dc, 0, 0, win.SRCCOPY)
	}
}

// pointer converts client coordinates in lParam to desktop space. Values
// are signed while the mouse is captured outside the client area.
func (w *overlayWindow) pointer(lParam uintptr) geometry.PointF {
	x := int16(win.LOWORD(uint32(lParam)))
	y := int16(win.HIWORD(uint32(lParam)))
	return geometry.PointF{X: float64(int(x) + w.origin.X), Y: float64(int(y) + w.origin.Y)}
}

// pollEscape catches Escape even when the overlay lost keyboard focus.
func (w *overlayWindow) pollEscape() {
	escapeDown, escapePressed := getAsyncKeyState(win.VK_ESCAPE)
	if !w.escapeWasDown && (escapeDown || escapePressed) {
		log.Printf("OVERLAY: Escape detected via async polling")
		w.ctrl.Key(KeyEscape)
	}
	w.escapeWasDown = escapeDown
}

func getAsyncKeyState(vk int32) (bool, bool) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	s := uint16(state)
	return s&0x8000 != 0, s&0x0001 != 0
}

func cursorPos() (geometry.Point, bool) {
	var p win.POINT
	if !win.GetCursorPos(&p) {
		return geometry.Point{}, false
	}
	return geometry.Pt(int(p.X), int(p.Y)), true
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	w := active
	if w == nil || w.hwnd != hwnd {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		w.ctrl.PointerDown(w.pointer(lParam))
		return 0

	case win.WM_MOUSEMOVE:
		w.ctrl.PointerMove(w.pointer(lParam))
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		w.ctrl.PointerUp(w.pointer(lParam))
		return 0

	case win.WM_KEYDOWN:
		ctrl := win.GetKeyState(win.VK_CONTROL) < 0
		key := TranslateKey(uint32(wParam), ctrl)
		if key == KeyEscape {
			w.escapeWasDown = true
		}
		w.ctrl.Key(key)
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			w.escapeWasDown = false
		}
		return 0

	case win.WM_CHAR:
		w.ctrl.Char(rune(wParam))
		return 0

	case win.WM_PAINT:
		w.paint()
		return 0

	case win.WM_SETCURSOR:
		if crossCursor != 0 {
			win.SetCursor(crossCursor)
		}
		return 1

	case win.WM_TIMER:
		if wParam == overlayTimerID {
			if w.ctx.Err() != nil {
				log.Printf("OVERLAY: context done, closing")
				w.Close()
				return 0
			}
			w.pollEscape()
			w.ctrl.Tick(time.Now())
		}
		return 0

	case win.WM_NCHITTEST:
		// Force all points to be client area so the window receives mouse events
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, overlayTimerID)
		// No PostQuitMessage: a stray WM_QUIT would end the next session's loop at once.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
