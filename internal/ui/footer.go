package ui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// DefaultFlashDuration is how long a flash message stays in the footer
const DefaultFlashDuration = 3 * time.Second

// FlashType selects the icon and color of a flash message
type FlashType int

const (
	FlashInfo FlashType = iota
	FlashSuccess
	FlashWarning
	FlashError
)

// FlashMessage is a short-lived status line that replaces the key hints
type FlashMessage struct {
	Text      string
	Type      FlashType
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the message has outlived its duration
func (f *FlashMessage) IsExpired() bool {
	return time.Since(f.CreatedAt) > f.Duration
}

// FlashTickMsg prompts the app to drop expired flash messages
type FlashTickMsg time.Time

// FlashTick returns a command that fires a FlashTickMsg after a second
func FlashTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return FlashTickMsg(t)
	})
}

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// Footer represents the bottom footer bar with keybindings
type Footer struct {
	width           int
	hasConversation bool
	sidebarFocused  bool
	streaming       bool
	flashMessage    *FlashMessage
}

// NewFooter creates a new footer
func NewFooter() *Footer {
	return &Footer{sidebarFocused: true}
}

// SetContext updates the footer's context for conditional bindings
func (f *Footer) SetContext(hasConversation, sidebarFocused, streaming bool) {
	f.hasConversation = hasConversation
	f.sidebarFocused = sidebarFocused
	f.streaming = streaming
}

// SetWidth sets the footer width
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetFlash shows text for DefaultFlashDuration
func (f *Footer) SetFlash(text string, t FlashType) {
	f.SetFlashWithDuration(text, t, DefaultFlashDuration)
}

// SetFlashWithDuration shows text for d
func (f *Footer) SetFlashWithDuration(text string, t FlashType, d time.Duration) {
	f.flashMessage = &FlashMessage{Text: text, Type: t, CreatedAt: time.Now(), Duration: d}
}

// ClearFlash removes the flash message
func (f *Footer) ClearFlash() {
	f.flashMessage = nil
}

// HasFlash reports whether a flash message is shown
func (f *Footer) HasFlash() bool {
	return f.flashMessage != nil
}

// ClearIfExpired drops an expired flash message and reports whether it did
func (f *Footer) ClearIfExpired() bool {
	if f.flashMessage != nil && f.flashMessage.IsExpired() {
		f.flashMessage = nil
		return true
	}
	return false
}

// Bindings returns the key hints for the current context
func (f *Footer) Bindings() []KeyBinding {
	switch {
	case f.sidebarFocused:
		b := []KeyBinding{
			{Key: "enter", Desc: "open"},
			{Key: "n", Desc: "new"},
			{Key: "d", Desc: "delete"},
		}
		if f.hasConversation {
			b = append(b, KeyBinding{Key: "tab", Desc: "chat"})
		}
		return append(b,
			KeyBinding{Key: "ctrl+b", Desc: "sidebar"},
			KeyBinding{Key: "q", Desc: "quit"},
		)
	case f.streaming:
		return []KeyBinding{
			{Key: "esc", Desc: "stop"},
			{Key: "tab", Desc: "switch pane"},
			{Key: "pgup/dn", Desc: "scroll"},
		}
	default:
		return []KeyBinding{
			{Key: "enter", Desc: "send"},
			{Key: "ctrl+↑/↓", Desc: "block"},
			{Key: "ctrl+y", Desc: "copy"},
			{Key: "ctrl+x", Desc: "delete pair"},
			{Key: "ctrl+s", Desc: "settings"},
			{Key: "ctrl+g", Desc: "debug"},
			{Key: "tab", Desc: "switch pane"},
		}
	}
}

// View renders the footer
func (f *Footer) View() string {
	if f.flashMessage != nil {
		return FooterStyle.Width(f.width).Render(f.renderFlash())
	}

	var parts []string
	for _, b := range f.Bindings() {
		key := FooterKeyStyle.Render(b.Key)
		desc := FooterDescStyle.Render(": " + b.Desc)
		parts = append(parts, key+desc)
	}
	content := strings.Join(parts, "  "+lipgloss.NewStyle().Foreground(ColorBorder).Render("|")+"  ")

	return FooterStyle.Width(f.width).Render(content)
}

func (f *Footer) renderFlash() string {
	var icon string
	var style lipgloss.Style
	switch f.flashMessage.Type {
	case FlashError:
		icon, style = "✕", StatusErrorStyle
	case FlashWarning:
		icon, style = "⚠", lipgloss.NewStyle().Foreground(ColorWarning)
	case FlashSuccess:
		icon, style = "✓", StatusSuccessStyle
	default:
		icon, style = "ℹ", StatusLoadingStyle
	}
	return style.Render(icon + " " + f.flashMessage.Text)
}
