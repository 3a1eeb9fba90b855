package ui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-runewidth"
)

// sidebarSpinnerFrames animate next to conversations with a live stream
var sidebarSpinnerFrames = []string{"·", "✺", "✹", "✸", "✷", "✶", "✵", "✴", "✳", "✲", "✱", "✧", "✦", "·"}

// sidebarSpinnerHoldTimes defines how long each frame should be held (in ticks).
// First and last frames hold longer for a "breathing" effect.
var sidebarSpinnerHoldTimes = []int{3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 3}

// SidebarTickMsg is sent to advance the spinner animation
type SidebarTickMsg time.Time

// SidebarTick schedules the next spinner frame
func SidebarTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return SidebarTickMsg(t)
	})
}

// Sidebar represents the left panel with the conversation list. It renders
// whatever the registry hands it and keeps no selection state of its own.
type Sidebar struct {
	ids          []string
	highlights   []bool
	cursor       int
	streaming    map[string]bool
	width        int
	height       int
	focused      bool
	scrollOffset int
	spinnerFrame int
	spinnerTick  int
}

// NewSidebar creates a new sidebar
func NewSidebar() *Sidebar {
	return &Sidebar{
		streaming: make(map[string]bool),
		cursor:    -1,
	}
}

// SetSize sets the sidebar dimensions
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height

	ctx := GetViewContext()
	ctx.Log("Sidebar.SetSize",
		"outerWidth", width,
		"outerHeight", height,
		"innerWidth", ctx.InnerWidth(width),
		"innerHeight", ctx.InnerHeight(height),
	)
}

// Width returns the sidebar width
func (s *Sidebar) Width() int {
	return s.width
}

// SetFocused sets the focus state
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state
func (s *Sidebar) IsFocused() bool {
	return s.focused
}

// SetConversations replaces the rows. highlights[i] marks ids[i] as the
// selected conversation; cursor is the row enter acts on.
func (s *Sidebar) SetConversations(ids []string, highlights []bool, cursor int) {
	s.ids = ids
	s.highlights = highlights
	s.cursor = cursor
}

// Rows returns the number of conversations shown
func (s *Sidebar) Rows() int {
	return len(s.ids)
}

// SetStreaming marks a conversation as having a live stream
func (s *Sidebar) SetStreaming(conversationID string, streaming bool) {
	if streaming {
		s.streaming[conversationID] = true
	} else {
		delete(s.streaming, conversationID)
	}
}

// IsStreaming reports whether any conversation has a live stream
func (s *Sidebar) IsStreaming() bool {
	return len(s.streaming) > 0
}

// IsConversationStreaming reports whether conversationID has a live stream
func (s *Sidebar) IsConversationStreaming(conversationID string) bool {
	return s.streaming[conversationID]
}

// Update advances the spinner. Navigation keys are handled by the app, which
// owns the registry cursor.
func (s *Sidebar) Update(msg tea.Msg) (*Sidebar, tea.Cmd) {
	if _, ok := msg.(SidebarTickMsg); ok && s.IsStreaming() {
		s.spinnerTick++
		holdTime := sidebarSpinnerHoldTimes[s.spinnerFrame%len(sidebarSpinnerHoldTimes)]
		if s.spinnerTick >= holdTime {
			s.spinnerTick = 0
			s.spinnerFrame = (s.spinnerFrame + 1) % len(sidebarSpinnerFrames)
		}
		return s, SidebarTick()
	}
	return s, nil
}

// ensureVisible keeps the cursor row inside the scroll window
func (s *Sidebar) ensureVisible(rows int) {
	if rows <= 0 {
		s.scrollOffset = 0
		return
	}
	if s.cursor < s.scrollOffset {
		s.scrollOffset = s.cursor
	}
	if s.cursor >= s.scrollOffset+rows {
		s.scrollOffset = s.cursor - rows + 1
	}
	if s.scrollOffset < 0 {
		s.scrollOffset = 0
	}
}

// View renders the sidebar
func (s *Sidebar) View() string {
	ctx := GetViewContext()

	style := PanelStyle
	if s.focused {
		style = PanelFocusedStyle
	}

	innerWidth := ctx.InnerWidth(s.width)
	innerHeight := ctx.InnerHeight(s.height)
	title := PanelTitleStyle.Render("Conversations")
	rows := innerHeight - 1

	var lines []string
	lines = append(lines, title)

	if len(s.ids) == 0 {
		lines = append(lines, SidebarEmptyStyle.Render(" No conversations. Press n."))
	} else {
		s.ensureVisible(rows)
		end := s.scrollOffset + rows
		if end > len(s.ids) {
			end = len(s.ids)
		}
		for i := s.scrollOffset; i < end; i++ {
			lines = append(lines, s.renderRow(i, innerWidth))
		}
	}

	return style.
		Width(s.width).
		Height(s.height).
		Render(strings.Join(lines, "\n"))
}

func (s *Sidebar) renderRow(i, innerWidth int) string {
	id := s.ids[i]

	prefix := "  "
	if i == s.cursor && s.focused {
		prefix = "> "
	}
	marker := ""
	if s.streaming[id] {
		marker = " " + SidebarStreamingStyle.Render(sidebarSpinnerFrames[s.spinnerFrame])
	}

	// Padding(0, 1) on the item styles takes two columns; the marker takes two.
	room := innerWidth - 2 - runewidth.StringWidth(prefix) - 2
	if room < 1 {
		room = 1
	}
	label := prefix + runewidth.Truncate(id, room, "…")

	itemStyle := SidebarItemStyle
	if i < len(s.highlights) && s.highlights[i] {
		itemStyle = SidebarSelectedStyle
	}
	return itemStyle.Width(innerWidth).Render(label + marker)
}
