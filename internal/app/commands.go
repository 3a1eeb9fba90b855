package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/surface"
)

// The commands below run off the UI loop and report back with a typed message.
// They never touch model state.

func (m *Model) loadConversations(selectAfter string) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		ids, err := be.ListConversations(ctx)
		return ConversationsLoadedMsg{IDs: ids, Select: selectAfter, Err: err}
	}
}

func (m *Model) fetchHistory(conversationID string) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		msgs, err := be.History(ctx, conversationID)
		return HistoryLoadedMsg{ConversationID: conversationID, Messages: msgs, Err: err}
	}
}

func (m *Model) createConversation() tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		id, err := be.CreateConversation(ctx)
		return ConversationCreatedMsg{ConversationID: id, Err: err}
	}
}

func (m *Model) deleteConversation(conversationID string) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		st, err := be.DeleteConversation(ctx, conversationID)
		return ConversationDeletedMsg{ConversationID: conversationID, Status: st, Err: err}
	}
}

func (m *Model) deletePair(conversationID string, pairIndex int) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		st, err := be.DeletePair(ctx, conversationID, pairIndex)
		return PairDeletedMsg{ConversationID: conversationID, PairIndex: pairIndex, Status: st, Err: err}
	}
}

func (m *Model) sendMessage(req backend.SendRequest, block *surface.Block) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		streamID, err := be.Send(ctx, req)
		return MessageSentMsg{ConversationID: req.ConversationID, Block: block, StreamID: streamID, Err: err}
	}
}

// stopStream tells the backend to stop producing for streamID. The result is
// only logged.
func (m *Model) stopStream(streamID string) tea.Cmd {
	if !m.cfg.Stream.NotifyBackendOnCancel || streamID == "" {
		return nil
	}
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		st, err := be.StopStream(ctx, streamID)
		return StreamStoppedMsg{StreamID: streamID, Status: st, Err: err}
	}
}

func (m *Model) debugDump(conversationID string) tea.Cmd {
	ctx, be := m.ctx, m.backend
	return func() tea.Msg {
		dump, err := be.DebugDump(ctx, conversationID)
		return DebugDumpMsg{ConversationID: conversationID, Dump: dump, Err: err}
	}
}

func (m *Model) copyBlock(text string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return CopyResultMsg{Bytes: len(text), Err: write(text)}
	}
}

func (m *Model) notifyCompleted(conversationID string) tea.Cmd {
	if !m.cfg.GetUI().Notifications {
		return nil
	}
	notify := m.notify
	return func() tea.Msg {
		return NotifyResultMsg{ConversationID: conversationID, Err: notify(conversationID)}
	}
}
