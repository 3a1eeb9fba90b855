package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/scottviteri/r1-chat/internal/ui"
)

// updateSizes recalculates and applies dimensions to all UI components
func (m *Model) updateSizes() {
	if m.width == 0 || m.height == 0 {
		return
	}
	ctx := ui.GetViewContext()
	ctx.SetSidebarHidden(m.sidebarHidden)
	ctx.UpdateTerminalSize(m.width, m.height)

	m.header.SetWidth(ctx.TerminalWidth)
	m.footer.SetWidth(ctx.TerminalWidth)
	m.sidebar.SetSize(ctx.SidebarWidth, ctx.ContentHeight)
	m.chat.SetSize(ctx.ChatWidth, ctx.ContentHeight)

	// Blocks wrap to the chat panel, so typeset output depends on its width.
	m.surfaces.SetWidth(m.chat.ContentWidth())
	if s, ok := m.modal.State.(*ui.SettingsState); ok {
		s.SetSize(m.width, m.height)
	}
}

// View renders the app
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current view as a string.
// This is useful for demos and testing.
func (m *Model) RenderToString() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Overlay modal if visible
	if m.modal.IsVisible() {
		return m.modal.View(m.width, m.height)
	}

	panels := m.chat.View()
	if !m.sidebarHidden {
		panels = lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.sidebar.View(),
			panels,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.header.View(),
		panels,
		m.footer.View(),
	)
}
