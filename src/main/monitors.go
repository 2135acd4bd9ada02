package main

import (
	"log"

	"screen-capture-tool/src/screenshot"
)

// logMonitorConfiguration logs the virtual desktop and each monitor the
// capture service sees.
func logMonitorConfiguration(s screenshot.Service) {
	monitors, err := s.EnumerateMonitors()
	if err != nil {
		log.Printf("MONITOR: enumeration failed: %v", err)
		return
	}
	if len(monitors) == 0 {
		log.Printf("MONITOR: no monitors detected")
		return
	}
	log.Printf("MONITOR: virtual desktop %v (%dx%d)", monitors[0], monitors[0].Width(), monitors[0].Height())
	for i, m := range monitors[1:] {
		log.Printf("MONITOR: #%d %v (%dx%d)", i, m, m.Width(), m.Height())
	}
}
