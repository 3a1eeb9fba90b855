// Package logger writes the client's diagnostics to a file. The TUI owns the
// terminal, so nothing here ever prints to stdout.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// DefaultLogPath is the default log file for the TUI process
const DefaultLogPath = "/tmp/r1-chat-debug.log"

// DemoLogPath is used by the standalone demo backend so its output does not
// interleave with the client's.
const DemoLogPath = "/tmp/r1-chat-demo.log"

var (
	mu       sync.Mutex
	level    = new(slog.LevelVar) // info until SetDebug(true)
	file     *os.File
	base     *slog.Logger
	path     string
	explicit bool // set by Init; a lazily opened default never overrides it
)

// SetDebug switches between debug and info level at runtime.
func SetDebug(enabled bool) {
	if enabled {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// Init directs logging to p, replacing a default file opened by an earlier
// call. A second Init is a no-op.
func Init(p string) error {
	mu.Lock()
	defer mu.Unlock()

	if explicit {
		return nil
	}
	if err := openLocked(p); err != nil {
		return err
	}
	explicit = true
	return nil
}

func openLocked(p string) error {
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", p, err)
	}
	if file != nil {
		file.Close()
	}
	file, path = f, p
	base = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	base.Info("Logger initialized", "path", p)
	return nil
}

// currentLocked returns the active logger, opening DefaultLogPath on first
// use. It returns nil when no file could be opened.
func currentLocked() *slog.Logger {
	if base == nil && path == "" {
		path = DefaultLogPath
		if err := openLocked(DefaultLogPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return base
}

func logf(lvl slog.Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	l := currentLocked()
	if l == nil || !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, args...))
}

// Debug writes a debug message to the log file (only if debug is enabled)
func Debug(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Info writes an info message to the log file
func Info(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

// Warn writes a warning message to the log file
func Warn(format string, args ...any) { logf(slog.LevelWarn, format, args...) }

// Error writes an error message to the log file
func Error(format string, args ...any) { logf(slog.LevelError, format, args...) }

// Log is Debug under the name the UI layer uses for key and focus tracing.
func Log(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// with returns the active logger with one attribute attached, or the process
// default when no log file is open.
func with(key, value string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := currentLocked()
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String(key, value))
}

// ComponentLogger returns a structured logger tagged with a component name.
//
//	log := logger.ComponentLogger("Stream")
//	log.Info("binding opened", "conversationID", id, "streamID", streamID)
func ComponentLogger(component string) *slog.Logger {
	return with("component", component)
}

// WithConversation returns a structured logger tagged with a conversation id.
func WithConversation(conversationID string) *slog.Logger {
	return with("conversationID", conversationID)
}

// Path returns the file the logger writes to, or "" before first use.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return path
}

// Close closes the log file. Later calls log nowhere until Reset.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	base = nil
}

// Reset returns the logger to its initial state. Tests use it between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
	}
	file, base, path, explicit = nil, nil, "", false
	level.Set(slog.LevelInfo)
}

// ClearLogs removes the client and demo log files, returning how many existed.
func ClearLogs() (int, error) {
	count := 0
	for _, p := range []string{DefaultLogPath, DemoLogPath} {
		if err := os.Remove(p); err == nil {
			count++
		} else if !os.IsNotExist(err) {
			return count, err
		}
	}
	return count, nil
}
