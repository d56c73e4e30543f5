// ABOUTME: slog logger for the TUI that writes to a file in the config directory
// ABOUTME: Keeps log output off the terminal while the TUI owns it

package debuglog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the log file created inside the config directory
const FileName = "debug.log"

var (
	logFile *os.File
	mu      sync.Mutex
	logger  = discard()
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init opens <configDir>/debug.log and installs a logger writing to it.
// LOG_LEVEL: debug, info, warn, error (default: info)
// LOG_FORMAT: text, json (default: text)
// If configDir is empty, logging is disabled.
func Init(configDir string) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	if configDir == "" {
		return logger, nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return logger, err
	}

	f, err := os.OpenFile(filepath.Join(configDir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return logger, err
	}

	logFile = f
	logger = New(f, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	return logger, nil
}

// New builds a logger writing to w with the given level and format names
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the installed logger; it discards output before Init
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Close closes the log file and disables logging
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = discard()
}

// Error logs an error with context
func Error(context string, err error) {
	if err == nil {
		return
	}
	Logger().Error(context, "error", err)
}
