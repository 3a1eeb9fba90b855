package stream

// State is the lifecycle state of a conversation's stream binding.
type State int

const (
	// Idle means no binding exists for the conversation.
	Idle State = iota
	// Streaming means a binding is open and accepting fragments.
	Streaming
	// Completed means the terminal token arrived.
	Completed
	// Failed means the stream ended with a server-reported or transport error.
	Failed
	// Cancelled means the binding was closed by the user or superseded by a
	// newer binding for the same conversation.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a binding.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// EndReason records why a binding left the Streaming state.
type EndReason int

const (
	EndNone EndReason = iota
	// EndTerminalToken: normal completion.
	EndTerminalToken
	// EndServerFailure: a failure-prefixed fragment was received and shown.
	EndServerFailure
	// EndTransport: the connection failed. Nothing is shown to the user.
	EndTransport
	// EndUser: the user stopped the stream.
	EndUser
	// EndSuperseded: a new binding for the same conversation replaced this one.
	EndSuperseded
	// EndDropped: the conversation was deleted.
	EndDropped
	// EndShutdown: the application is exiting.
	EndShutdown
)

func (r EndReason) String() string {
	switch r {
	case EndTerminalToken:
		return "terminal token"
	case EndServerFailure:
		return "server failure"
	case EndTransport:
		return "transport error"
	case EndUser:
		return "stopped by user"
	case EndSuperseded:
		return "superseded"
	case EndDropped:
		return "dropped"
	case EndShutdown:
		return "shutdown"
	default:
		return "none"
	}
}
