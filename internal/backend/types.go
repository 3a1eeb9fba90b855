package backend

import "encoding/json"

// Message roles used in the backend's flat conversation log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation's history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SendRequest is the body of POST /send_message.
type SendRequest struct {
	Text           string  `json:"text"`
	ConversationID string  `json:"conversation_id"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	MaxTokens      int     `json:"max_tokens"`
}

// Status is the payload returned by the mutating endpoints. Servers report
// failures either as {"status": "error", "message": ...} or {"error": ...}.
type Status struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the server acknowledged the operation.
func (s Status) OK() bool {
	return s.Status == "ok" && s.Error == ""
}

// Reason returns the human-readable explanation carried by a failed status.
func (s Status) Reason() string {
	if s.Message != "" {
		return s.Message
	}
	if s.Error != "" {
		return s.Error
	}
	if s.Status != "" {
		return s.Status
	}
	return "unknown error"
}

// DebugDump is the opaque diagnostic payload returned by POST /debug_print.
type DebugDump = json.RawMessage

type conversationCreated struct {
	ConversationID string `json:"conversation_id"`
}

type streamStarted struct {
	StreamID string `json:"stream_id"`
}

type conversationRef struct {
	ConversationID string `json:"conversation_id"`
}

type pairRef struct {
	ConversationID string `json:"conversation_id"`
	PairIndex      int    `json:"pair_index"`
}

type streamRef struct {
	StreamID string `json:"stream_id"`
}

type errorBody struct {
	Error string `json:"error"`
}
