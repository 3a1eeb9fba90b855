// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/scottviteri/r1-chat/internal/errors"
	"github.com/scottviteri/r1-chat/internal/logger"
)

var (
	mu          sync.Mutex
	initialized bool
	initErr     error
)

// Init initializes the clipboard. Must be called before other functions.
// This is safe to call multiple times; a failure is remembered so headless
// sessions do not retry on every copy.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return initErr
	}
	initialized = true

	if err := clipboard.Init(); err != nil {
		logger.Warn("Clipboard: Failed to initialize: %v", err)
		initErr = fmt.Errorf("failed to initialize clipboard: %w", err)
		return initErr
	}

	logger.Debug("Clipboard: Initialized successfully")
	return nil
}

// WriteText places text on the clipboard.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return errors.ClipboardFailed(err)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	logger.Debug("Clipboard: Wrote %d bytes of text", len(text))
	return nil
}
