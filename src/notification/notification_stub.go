//go:build !windows

package notification

import "log"

func showPopup(level Level, title, message string, blocking bool) error {
	if blocking {
		log.Printf("%s: %s", title, message)
	}
	return nil
}
