package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "screen_capture_debug.log"
	maxSizeMB     = 10
	maxArchives   = 3
	maxLoggedText = 80
)

// Setup enables file logging with size-based rotation (10MB, max 3 archives).
// When disabled, logs are discarded to keep stdout clean.
func Setup(enableFileLogging bool) {
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		return
	}
	if _, err := SetupFile(logFileName); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
	}
}

// SetupFile sends the standard logger to path with rotation. The returned
// logger owns the file and should be closed when logging stops.
func SetupFile(path string) (*lumberjack.Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	w := newRotatingLogger(path)
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return w, nil
}

func newRotatingLogger(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxArchives,
	}
}

// SanitizeForLog makes user-entered text safe for a single log line:
// control characters become spaces and long input is cut short.
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	if r := []rune(s); len(r) > maxLoggedText {
		return string(r[:maxLoggedText]) + "..."
	}
	return s
}
