//go:build windows

package notification

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mbOK              = 0x00000000
	mbIconError       = 0x00000010
	mbIconInformation = 0x00000040
	mbSetForeground   = 0x00010000
	mbTopmost         = 0x00040000
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

func showPopup(level Level, title, message string, blocking bool) error {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	flags := uintptr(mbOK | mbSetForeground | mbTopmost | mbIconInformation)
	if level == Error {
		flags = mbOK | mbSetForeground | mbTopmost | mbIconError
	}
	if err := procMessageBoxW.Find(); err != nil {
		return fmt.Errorf("MessageBoxW unavailable: %w", err)
	}
	ret, _, callErr := procMessageBoxW.Call(
		0, // no parent window
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		flags,
	)
	if ret == 0 {
		return fmt.Errorf("MessageBoxW failed: %v", callErr)
	}
	return nil
}
