package ui

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/scottviteri/r1-chat/internal/keys"
	"github.com/scottviteri/r1-chat/internal/surface"
)

// Chat represents the right panel: the visible surface in a viewport and the
// message input below it.
type Chat struct {
	viewport  viewport.Model
	input     textarea.Model
	width     int
	height    int
	focused   bool
	streaming bool

	surface *surface.Surface
	// What the viewport content was last rendered from.
	shownSurface *surface.Surface
	shownVersion uint64
	shownCursor  int
	shownFocus   bool
}

// NewChat creates a new chat panel
func NewChat() *Chat {
	ti := textarea.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 0
	ti.SetHeight(TextareaHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	c := &Chat{
		viewport:    vp,
		input:       ti,
		shownCursor: -1,
	}
	c.updateContent()
	return c
}

// SetSize sets the chat panel dimensions
func (c *Chat) SetSize(width, height int) {
	c.width = width
	c.height = height

	ctx := GetViewContext()

	chatPanelHeight := height - InputTotalHeight
	innerWidth := ctx.InnerWidth(width)
	// One line inside the panel is reserved for the status line.
	viewportHeight := ctx.InnerHeight(chatPanelHeight) - 1
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	c.viewport.SetWidth(innerWidth)
	c.viewport.SetHeight(viewportHeight)
	c.input.SetWidth(ctx.InnerWidth(width) - InputPaddingWidth)

	ctx.Log("Chat.SetSize", "outerWidth", width, "outerHeight", height,
		"viewportWidth", c.viewport.Width(), "viewportHeight", c.viewport.Height())
	c.updateContent()
}

// ContentWidth is the wrap width available to block text
func (c *Chat) ContentWidth() int {
	w := c.viewport.Width() - ChatBlockStyle.GetHorizontalFrameSize()
	if w <= 0 {
		return DefaultWrapWidth
	}
	return w
}

// SetFocused sets the focus state
func (c *Chat) SetFocused(focused bool) {
	c.focused = focused
	if focused {
		c.input.Focus()
	} else {
		c.input.Blur()
	}
}

// IsFocused returns the focus state
func (c *Chat) IsFocused() bool {
	return c.focused
}

// SetSurface shows s, or the empty placeholder when s is nil
func (c *Chat) SetSurface(s *surface.Surface) {
	c.surface = s
	c.Refresh()
}

// Surface returns the surface being shown
func (c *Chat) Surface() *surface.Surface {
	return c.surface
}

// SetStreaming marks the shown conversation as having a live stream
func (c *Chat) SetStreaming(streaming bool) {
	c.streaming = streaming
}

// Refresh re-renders when the surface changed since the last render. A content
// change scrolls to the bottom; a cursor or focus change keeps the offset.
func (c *Chat) Refresh() {
	var version uint64
	cursor := -1
	if c.surface != nil {
		version = c.surface.Version()
		cursor = c.surface.Cursor()
	}

	contentChanged := c.surface != c.shownSurface || version != c.shownVersion
	if !contentChanged && cursor == c.shownCursor && c.focused == c.shownFocus {
		return
	}

	offset := c.viewport.YOffset()
	c.updateContent()
	if contentChanged {
		c.viewport.GotoBottom()
	} else {
		c.viewport.SetYOffset(offset)
	}
}

// updateContent renders the surface into the viewport
func (c *Chat) updateContent() {
	c.shownSurface = c.surface
	c.shownFocus = c.focused
	c.shownVersion = 0
	c.shownCursor = -1

	if c.surface == nil {
		c.viewport.SetContent(ChatEmptyStyle.Render("Select or create a conversation."))
		return
	}
	c.shownVersion = c.surface.Version()
	c.shownCursor = c.surface.Cursor()

	selected, _ := c.surface.Selected()
	width := c.ContentWidth()

	var sb strings.Builder
	for _, node := range c.surface.Nodes() {
		if node.Block == nil {
			sb.WriteString(ChatNoticeStyle.Render(surface.Display(node.Notice)))
			sb.WriteString("\n")
			continue
		}
		style := ChatBlockStyle
		if c.focused && node.Block == selected {
			style = ChatBlockSelectedStyle
		}
		sb.WriteString(style.Width(width).Render(renderBlock(node.Block)))
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		sb.WriteString(ChatEmptyStyle.Render("No messages yet."))
	}
	c.viewport.SetContent(sb.String())
}

func renderBlock(b *surface.Block) string {
	var parts []string
	if !b.User.Empty() {
		parts = append(parts, ChatUserStyle.Render(b.User.View()))
	}
	if !b.Assistant.Empty() {
		parts = append(parts, ChatAssistantStyle.Render(b.Assistant.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// GetInput returns the input text with surrounding whitespace removed
func (c *Chat) GetInput() string {
	return strings.TrimSpace(c.input.Value())
}

// ClearInput clears the input field
func (c *Chat) ClearInput() {
	c.input.Reset()
}

// Update handles scroll keys and forwards everything else to the input
func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if !c.focused {
			return c, nil
		}
		switch msg.String() {
		case keys.PgUp, keys.PgDown:
			c.viewport, cmd = c.viewport.Update(msg)
			return c, cmd
		}
		c.input, cmd = c.input.Update(msg)
		return c, cmd
	case tea.MouseWheelMsg:
		c.viewport, cmd = c.viewport.Update(msg)
		return c, cmd
	}

	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the chat panel
func (c *Chat) View() string {
	panelStyle := PanelStyle
	inputStyle := ChatInputStyle
	if c.focused {
		panelStyle = PanelFocusedStyle
		inputStyle = ChatInputFocusedStyle
	}

	status := ""
	if c.streaming {
		status = StatusLoadingStyle.Render("streaming… esc to stop")
	}

	panel := panelStyle.
		Width(c.width).
		Height(c.height - InputTotalHeight).
		Render(c.viewport.View() + "\n" + status)

	input := inputStyle.
		Width(c.width).
		Render(c.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, panel, input)
}
