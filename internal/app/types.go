package app

import (
	"github.com/google/uuid"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/surface"
)

// ConversationsLoadedMsg carries a fresh listing. Select, when set, is selected
// once the listing is applied.
type ConversationsLoadedMsg struct {
	IDs    []string
	Select string
	Err    error
}

// HistoryLoadedMsg carries a conversation's full message log.
type HistoryLoadedMsg struct {
	ConversationID string
	Messages       []backend.Message
	Err            error
}

// ConversationCreatedMsg is sent when the server issued a new conversation id.
type ConversationCreatedMsg struct {
	ConversationID string
	Err            error
}

// ConversationDeletedMsg is sent when a conversation delete request completed.
type ConversationDeletedMsg struct {
	ConversationID string
	Status         backend.Status
	Err            error
}

// PairDeletedMsg is sent when a pair delete request completed.
type PairDeletedMsg struct {
	ConversationID string
	PairIndex      int
	Status         backend.Status
	Err            error
}

// MessageSentMsg is sent when the server accepted a message. Block is the
// optimistic block the reply stream will be bound to.
type MessageSentMsg struct {
	ConversationID string
	Block          *surface.Block
	StreamID       string
	Err            error
}

// StreamEventMsg delivers one push-stream event for a binding.
type StreamEventMsg struct {
	ConversationID string
	BindingID      uuid.UUID
	Event          backend.Event
}

// StreamClosedMsg is sent when a binding's event channel closed.
type StreamClosedMsg struct {
	ConversationID string
	BindingID      uuid.UUID
}

// StreamStoppedMsg reports the backend's answer to a stop request.
type StreamStoppedMsg struct {
	StreamID string
	Status   backend.Status
	Err      error
}

// DebugDumpMsg carries the server-side debug snapshot.
type DebugDumpMsg struct {
	ConversationID string
	Dump           backend.DebugDump
	Err            error
}

// CopyResultMsg reports the outcome of a clipboard write.
type CopyResultMsg struct {
	Bytes int
	Err   error
}

// NotifyResultMsg reports the outcome of a desktop notification.
type NotifyResultMsg struct {
	ConversationID string
	Err            error
}
