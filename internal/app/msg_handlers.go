package app

import (
	"io"

	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/backend"
	rerrors "github.com/scottviteri/r1-chat/internal/errors"
	"github.com/scottviteri/r1-chat/internal/logger"
	"github.com/scottviteri/r1-chat/internal/stream"
	"github.com/scottviteri/r1-chat/internal/surface"
	"github.com/scottviteri/r1-chat/internal/ui"
)

// =============================================================================
// User intents
// =============================================================================

// selectConversation makes id active and shows its surface, then fetches its
// history. The surface is rebuilt from scratch when the history arrives.
func (m *Model) selectConversation(id string) tea.Cmd {
	logger.WithConversation(id).Info("selecting conversation")
	m.registry.Select(id)
	m.surfaces.Show(id)
	return m.fetchHistory(id)
}

// send validates the input, renders the user's text immediately and submits
// it. The reply stream is bound once the server answers with a stream id.
func (m *Model) send() tea.Cmd {
	selected := m.registry.Selected()
	if selected == "" {
		return m.alertInputError(rerrors.NoActiveConversation())
	}
	text := m.chat.GetInput()
	if text == "" {
		return m.alertInputError(rerrors.EmptyMessage())
	}

	block := m.surfaces.Get(selected).AddLiveBlock(text)
	m.chat.ClearInput()

	s := m.cfg.GetSampling()
	req := backend.SendRequest{
		Text:           text,
		ConversationID: selected,
		Temperature:    s.Temperature,
		TopP:           s.TopP,
		MaxTokens:      s.MaxTokens,
	}
	logger.WithConversation(selected).Info("sending message",
		"chars", len(text), "temperature", s.Temperature, "topP", s.TopP, "maxTokens", s.MaxTokens)
	return m.sendMessage(req, block)
}

// alertInputError shows a user input error as a blocking alert. Other kinds
// are only logged.
func (m *Model) alertInputError(err error) tea.Cmd {
	if rerrors.Is(err, rerrors.KindInvalid) {
		m.ShowAlert("", inputErrorText(err))
		return nil
	}
	logger.Error("App: %v", err)
	return nil
}

func inputErrorText(err error) string {
	e, ok := err.(*rerrors.Error)
	switch {
	case !ok:
		return err.Error()
	case e.Context != "":
		return e.Context
	case e.Err != nil:
		return e.Err.Error()
	}
	return err.Error()
}

// stop cancels the active conversation's stream. With no live binding it does
// nothing.
func (m *Model) stop() tea.Cmd {
	selected := m.registry.Selected()
	if selected == "" {
		return nil
	}
	var notices stream.Noticer
	if sf, ok := m.surfaces.Visible(); ok {
		notices = sf
	}
	b, ok := m.streams.Cancel(selected, notices)
	if !ok {
		return nil
	}
	m.sidebar.SetStreaming(selected, false)
	return m.stopStream(b.StreamID)
}

// confirmDeletePair asks before deleting the pair under the block cursor.
func (m *Model) confirmDeletePair() tea.Cmd {
	selected := m.registry.Selected()
	sf, ok := m.surfaces.Visible()
	if selected == "" || !ok {
		return nil
	}
	b, ok := sf.Selected()
	if !ok {
		return nil
	}
	if b.Live() {
		return m.ShowFlashWarning("Not saved yet. Reopen the conversation to delete this pair.")
	}
	m.modal.Show(ui.NewConfirmDeletePair(selected, b.Index, b.Text()))
	return nil
}

// copySelectedBlock copies the plain text of the block under the block cursor.
func (m *Model) copySelectedBlock() tea.Cmd {
	sf, ok := m.surfaces.Visible()
	if !ok {
		return nil
	}
	b, ok := sf.Selected()
	if !ok {
		return nil
	}
	return m.copyBlock(b.Text())
}

func (m *Model) requestDebugDump() tea.Cmd {
	selected := m.registry.Selected()
	if selected == "" {
		return nil
	}
	return m.debugDump(selected)
}

func (m *Model) showSettings() {
	s, u := m.cfg.GetSampling(), m.cfg.GetUI()
	state := ui.NewSettingsState(ui.Settings{
		Temperature:   s.Temperature,
		TopP:          s.TopP,
		MaxTokens:     s.MaxTokens,
		Markdown:      u.Markdown,
		Notifications: u.Notifications,
	})
	state.SetSize(m.width, m.height)
	m.modal.Show(state)
}

// =============================================================================
// Request results
// =============================================================================

func (m *Model) handleConversationsLoadedMsg(msg ConversationsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Error("App: Failed to list conversations: %v", msg.Err)
		return m, m.ShowFlash("Could not load conversations", ui.FlashError)
	}
	m.registry.SetConversations(msg.IDs)
	logger.Log("App: Loaded %d conversations", len(msg.IDs))

	if msg.Select != "" && m.registry.Contains(msg.Select) {
		return m, m.selectConversation(msg.Select)
	}
	return m, nil
}

func (m *Model) handleHistoryLoadedMsg(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Error("failed to fetch history", "error", msg.Err)
		return m, nil
	}
	if !m.registry.Contains(msg.ConversationID) {
		log.Debug("dropping history for unknown conversation")
		return m, nil
	}

	// A late answer for a conversation the user has left still refreshes its
	// cached surface; visibility is untouched. A reply still streaming keeps
	// its block.
	var live *surface.Region
	if b, ok := m.streams.Binding(msg.ConversationID); ok && b.State() == stream.Streaming {
		live, _ = b.Region().(*surface.Region)
	}
	m.surfaces.Get(msg.ConversationID).RebuildKeeping(msg.Messages, live)
	log.Debug("history rebuilt", "messages", len(msg.Messages),
		"visible", msg.ConversationID == m.registry.Selected(), "keptLive", live != nil)
	return m, nil
}

func (m *Model) handleConversationCreatedMsg(msg ConversationCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Error("App: Failed to create conversation: %v", msg.Err)
		return m, m.ShowFlash("Could not create conversation", ui.FlashError)
	}
	logger.WithConversation(msg.ConversationID).Info("conversation created")
	return m, m.loadConversations(msg.ConversationID)
}

func (m *Model) handleConversationDeletedMsg(msg ConversationDeletedMsg) (tea.Model, tea.Cmd) {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Error("failed to delete conversation", "error", msg.Err)
		return m, m.ShowFlash("Could not delete conversation", ui.FlashError)
	}
	if !msg.Status.OK() {
		log.Warn("delete conversation rejected", "reason", msg.Status.Reason())
	}

	if _, ok := m.streams.Drop(msg.ConversationID); ok {
		m.sidebar.SetStreaming(msg.ConversationID, false)
	}
	if m.registry.Selected() == msg.ConversationID {
		m.registry.ClearSelection()
		m.surfaces.HideAll()
	}
	m.surfaces.Remove(msg.ConversationID)
	log.Info("conversation deleted")
	return m, m.loadConversations("")
}

func (m *Model) handlePairDeletedMsg(msg PairDeletedMsg) (tea.Model, tea.Cmd) {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Error("failed to delete pair", "index", msg.PairIndex, "error", msg.Err)
		m.ShowAlert("Error", "Error deleting pair: "+msg.Err.Error())
		return m, nil
	}
	if !msg.Status.OK() {
		log.Warn("delete pair rejected", "index", msg.PairIndex, "reason", msg.Status.Reason())
		m.ShowAlert("Error", "Error deleting pair: "+msg.Status.Reason())
		return m, nil
	}
	log.Info("pair deleted", "index", msg.PairIndex)
	// Indices after the deleted pair shifted; rebuild from the server's log.
	return m, m.selectConversation(msg.ConversationID)
}

func (m *Model) handleMessageSentMsg(msg MessageSentMsg) (tea.Model, tea.Cmd) {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		// The optimistic user text stays; no reply will arrive for it.
		log.Error("send failed", "error", msg.Err)
		return m, nil
	}
	if m.shutdown || !m.registry.Contains(msg.ConversationID) {
		log.Warn("conversation gone before stream opened", "streamID", msg.StreamID)
		return m, nil
	}

	b, superseded := m.streams.Open(msg.ConversationID, msg.StreamID, msg.Block.Assistant)

	var cmds []tea.Cmd
	if superseded != nil {
		cmds = append(cmds, m.stopStream(superseded.StreamID))
	}
	m.sidebar.SetStreaming(msg.ConversationID, true)
	cmds = append(cmds, m.startSpinner(), listenForStream(b))
	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamEventMsg(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	out := m.streams.Handle(msg.ConversationID, msg.BindingID, msg.Event)
	if out.Stale {
		return m, nil
	}
	if !out.Ended() {
		return m, listenForStream(out.Binding)
	}
	return m, m.streamEnded(out.Binding)
}

// handleStreamClosedMsg treats a channel that closed under a live binding as a
// transport failure.
func (m *Model) handleStreamClosedMsg(msg StreamClosedMsg) (tea.Model, tea.Cmd) {
	b, ok := m.streams.Binding(msg.ConversationID)
	if !ok || b.ID != msg.BindingID {
		return m, nil
	}
	ev := backend.Event{Err: rerrors.StreamFailed(b.StreamID, io.ErrUnexpectedEOF)}
	out := m.streams.Handle(msg.ConversationID, msg.BindingID, ev)
	if out.Stale {
		return m, nil
	}
	return m, m.streamEnded(out.Binding)
}

// streamEnded clears the streaming marker and, for a reply that completed
// while the user was elsewhere, sends a desktop notification.
func (m *Model) streamEnded(b *stream.Binding) tea.Cmd {
	m.sidebar.SetStreaming(b.ConversationID, false)
	logger.WithConversation(b.ConversationID).Info("stream ended",
		"streamID", b.StreamID, "state", b.State().String(), "reason", b.Reason().String(),
		"fragments", b.Fragments())

	if b.State() == stream.Completed && b.ConversationID != m.registry.Selected() {
		return m.notifyCompleted(b.ConversationID)
	}
	return nil
}

func (m *Model) handleStreamStoppedMsg(msg StreamStoppedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err != nil:
		logger.Warn("App: stop_stream %s failed: %v", msg.StreamID, msg.Err)
	case !msg.Status.OK():
		logger.Warn("App: stop_stream %s rejected: %s", msg.StreamID, msg.Status.Reason())
	default:
		logger.Debug("App: stop_stream %s acknowledged", msg.StreamID)
	}
	return m, nil
}

func (m *Model) handleDebugDumpMsg(msg DebugDumpMsg) (tea.Model, tea.Cmd) {
	log := logger.WithConversation(msg.ConversationID)
	if msg.Err != nil {
		log.Error("debug dump failed", "error", msg.Err)
		return m, nil
	}
	log.Info("debug dump", "payload", string(msg.Dump))
	return m, nil
}

func (m *Model) handleCopyResultMsg(msg CopyResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Error("App: Copy failed: %v", msg.Err)
		return m, nil
	}
	return m, m.ShowFlashSuccess("Copied to clipboard")
}
