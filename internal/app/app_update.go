package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/keys"
	"github.com/scottviteri/r1-chat/internal/logger"
	"github.com/scottviteri/r1-chat/internal/ui"
)

// Update handles messages. This is the core Bubble Tea update function that routes
// all messages to appropriate handlers. View components are re-synced from model
// state after every message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	m.sync()
	return model, cmd
}

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case tea.KeyPressMsg:
		if result, cmd := m.handleKeyPress(msg); result != nil {
			return result, cmd
		}
		// Key not handled by handleKeyPress, let it fall through to focused panel

	case ConversationsLoadedMsg:
		return m.handleConversationsLoadedMsg(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoadedMsg(msg)

	case ConversationCreatedMsg:
		return m.handleConversationCreatedMsg(msg)

	case ConversationDeletedMsg:
		return m.handleConversationDeletedMsg(msg)

	case PairDeletedMsg:
		return m.handlePairDeletedMsg(msg)

	case MessageSentMsg:
		return m.handleMessageSentMsg(msg)

	case StreamEventMsg:
		return m.handleStreamEventMsg(msg)

	case StreamClosedMsg:
		return m.handleStreamClosedMsg(msg)

	case StreamStoppedMsg:
		return m.handleStreamStoppedMsg(msg)

	case DebugDumpMsg:
		return m.handleDebugDumpMsg(msg)

	case CopyResultMsg:
		return m.handleCopyResultMsg(msg)

	case NotifyResultMsg:
		if msg.Err != nil {
			logger.WithConversation(msg.ConversationID).Warn("notification failed", "error", msg.Err)
		}
		return m, nil
	}

	// Update modal
	if m.modal.IsVisible() {
		modal, cmd := m.modal.Update(msg)
		m.modal = modal
		cmds = append(cmds, cmd)
	}

	// Handle tick messages regardless of focus
	if cmd, handled := m.handleTickMessages(msg); handled {
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Mouse wheel always scrolls the conversation
	if _, ok := msg.(tea.MouseWheelMsg); ok {
		chat, cmd := m.chat.Update(msg)
		m.chat = chat
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Update focused panel for other messages
	if m.focus == FocusChat && !m.modal.IsVisible() {
		chat, cmd := m.chat.Update(msg)
		m.chat = chat
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles all keyboard input.
// Returns (model, cmd) if the key was handled, or (nil, nil) if it should fall through
// to the focused panel for handling.
func (m *Model) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	logger.Log("App: KeyPressMsg received: key=%q, focus=%v, modalVisible=%v", key, m.focus, m.modal.IsVisible())

	// Handle modal first if visible
	if m.modal.IsVisible() {
		return m.handleModalKey(msg)
	}

	// ctrl+c always quits
	if key == keys.CtrlC {
		m.Shutdown()
		return m, tea.Quit
	}

	switch key {
	case keys.Tab:
		if m.focus == FocusSidebar {
			m.setFocus(FocusChat)
		} else if !m.sidebarHidden {
			m.setFocus(FocusSidebar)
		}
		return m, nil
	case keys.CtrlB:
		m.toggleSidebar()
		return m, nil
	}

	if m.focus == FocusSidebar {
		if result, cmd, handled := m.handleSidebarKeys(key); handled {
			return result, cmd
		}
		// The sidebar has no text input; swallow everything else.
		return m, nil
	}

	if result, cmd, handled := m.handleChatFocusedKeys(key); handled {
		return result, cmd
	}

	// Key not handled - return nil to signal it should fall through to focused panel
	return nil, nil
}

// handleSidebarKeys handles keys when the conversation list is focused
func (m *Model) handleSidebarKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case keys.Up, "k":
		m.registry.MoveCursor(-1)
		return m, nil, true
	case keys.Down, "j":
		m.registry.MoveCursor(1)
		return m, nil, true
	case keys.Enter:
		id, ok := m.registry.AtCursor()
		if !ok {
			return m, nil, true
		}
		return m, m.selectConversation(id), true
	case "n":
		logger.Log("App: Creating new conversation")
		return m, m.createConversation(), true
	case "d":
		id, ok := m.registry.AtCursor()
		if !ok {
			return m, nil, true
		}
		m.modal.Show(ui.NewConfirmDeleteConversation(id))
		return m, nil, true
	case "q":
		m.Shutdown()
		return m, tea.Quit, true
	}
	return m, nil, false
}

// handleChatFocusedKeys handles keys when chat panel is focused
func (m *Model) handleChatFocusedKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case keys.Enter:
		return m, m.send(), true
	case keys.Escape:
		return m, m.stop(), true
	case keys.CtrlUp:
		m.moveBlockCursor(-1)
		return m, nil, true
	case keys.CtrlDown:
		m.moveBlockCursor(1)
		return m, nil, true
	case keys.CtrlX:
		return m, m.confirmDeletePair(), true
	case keys.CtrlY:
		return m, m.copySelectedBlock(), true
	case keys.CtrlG:
		return m, m.requestDebugDump(), true
	case keys.CtrlS:
		m.showSettings()
		return m, nil, true
	}
	return m, nil, false
}

// handleTickMessages handles tick messages for animations and timers
func (m *Model) handleTickMessages(msg tea.Msg) (tea.Cmd, bool) {
	switch msg.(type) {
	case ui.SidebarTickMsg:
		sidebar, cmd := m.sidebar.Update(msg)
		m.sidebar = sidebar
		m.spinnerActive = cmd != nil
		return cmd, true
	case ui.FlashTickMsg:
		// Keep ticking while a flash is shown so it is cleared once expired
		m.footer.ClearIfExpired()
		if m.footer.HasFlash() {
			return ui.FlashTick(), true
		}
		return nil, true
	}
	return nil, false
}

// startSpinner starts the sidebar streaming animation unless it is already running
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	return ui.SidebarTick()
}

// toggleSidebar hides or shows the conversation list. Focus moves to the chat
// while the list is hidden.
func (m *Model) toggleSidebar() {
	m.sidebarHidden = !m.sidebarHidden
	if m.sidebarHidden && m.focus == FocusSidebar {
		m.setFocus(FocusChat)
	}
	m.updateSizes()
	logger.Log("App: Sidebar hidden=%v", m.sidebarHidden)
}

func (m *Model) moveBlockCursor(delta int) {
	if sf, ok := m.surfaces.Visible(); ok {
		sf.MoveCursor(delta)
	}
}
