// Package notification tells the user about capture outcomes.
package notification

import (
	"log"
)

const maxMessageLen = 300

// Level picks the message icon.
type Level int

const (
	Info Level = iota
	Error
)

// Show displays a short non-blocking message.
func Show(title, message string) { show(Info, title, message) }

// ShowError displays a non-blocking error message.
func ShowError(title, message string) { show(Error, title, message) }

func show(level Level, title, message string) {
	message = truncate(message)
	log.Printf("Notification: %s: %s", title, message)
	go func() {
		if err := showPopup(level, title, message, false); err != nil {
			log.Printf("Failed to show notification: %v", err)
		}
	}()
}

// ShowBlockingError displays an error and waits until it is dismissed.
func ShowBlockingError(title, message string) {
	if err := showPopup(Error, title, truncate(message), true); err != nil {
		log.Printf("Failed to show notification: %v", err)
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLen {
		return s
	}
	return string(r[:maxMessageLen]) + "..."
}
