// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"github.com/gen2brain/beeep"

	"github.com/scottviteri/r1-chat/internal/logger"
)

// AppName is the notification title.
const AppName = "r1-chat"

// notifier is the function used to send notifications; tests replace it.
var notifier = beeep.Notify

// SetNotifier replaces the notification function.
func SetNotifier(f func(title, message string, icon any) error) {
	notifier = f
}

// ResetNotifier restores the default beeep notifier.
func ResetNotifier() {
	notifier = beeep.Notify
}

// Send sends a desktop notification with the given title and message.
// On macOS, it uses terminal-notifier or AppleScript.
// On Linux, it uses D-Bus or notify-send.
// On Windows, it uses the Windows Runtime COM API.
func Send(title, message string) error {
	logger.Debug("Notification: Sending notification - title=%q, message=%q", title, message)
	// Use empty string for icon - beeep handles platform defaults
	err := notifier(title, message, "")
	if err != nil {
		logger.Warn("Notification: Failed to send notification: %v", err)
	}
	return err
}

// ReplyCompleted announces that a reply finished streaming into a
// conversation the user is not looking at.
func ReplyCompleted(conversationID string) error {
	return Send(AppName, "Reply ready in "+ShortID(conversationID))
}

// ShortID abbreviates a conversation id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
