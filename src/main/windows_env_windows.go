//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// enableDPIAwareness sets per-monitor DPI awareness so overlay pixels match
// desktop pixels. It falls back to system awareness before Windows 8.1.
func enableDPIAwareness() {
	setAwareness := windows.NewLazySystemDLL("shcore.dll").NewProc("SetProcessDpiAwareness")
	if setAwareness.Find() == nil {
		ret, _, _ := setAwareness.Call(processPerMonitorDPIAware)
		if ret == 0 {
			log.Printf("DPI: per-monitor awareness enabled")
		} else {
			log.Printf("DPI: SetProcessDpiAwareness failed: 0x%x", ret)
		}
		return
	}

	setAware := windows.NewLazySystemDLL("user32.dll").NewProc("SetProcessDPIAware")
	if setAware.Find() != nil {
		log.Printf("DPI: no DPI awareness API available")
		return
	}
	if ret, _, _ := setAware.Call(); ret != 0 {
		log.Printf("DPI: system awareness enabled (fallback)")
	} else {
		log.Printf("DPI: SetProcessDPIAware failed")
	}
}
