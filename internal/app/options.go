package app

import (
	"github.com/scottviteri/r1-chat/internal/clipboard"
	"github.com/scottviteri/r1-chat/internal/notification"
	"github.com/scottviteri/r1-chat/internal/surface"
)

// Option configures a Model
type Option func(*Model)

// WithVersion sets the version shown in logs
func WithVersion(v string) Option {
	return func(m *Model) { m.version = v }
}

// WithTypesetter replaces the markdown typesetter. Nil disables typesetting.
func WithTypesetter(ts surface.Typesetter) Option {
	return func(m *Model) { m.surfaces.SetTypesetter(ts) }
}

// WithClipboard replaces the system clipboard writer used by copy.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copyText = write }
}

// WithNotifier replaces the desktop notifier used when a background reply completes.
func WithNotifier(notify func(conversationID string) error) Option {
	return func(m *Model) { m.notify = notify }
}

func defaultCopy(text string) error {
	return clipboard.WriteText(text)
}

func defaultNotify(conversationID string) error {
	return notification.ReplyCompleted(conversationID)
}
