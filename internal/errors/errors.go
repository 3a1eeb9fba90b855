// Package errors provides structured error types for r1-chat.
// These errors provide context about what operation failed and where.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindNetwork
	KindServer
	KindDecode
	KindConfig
	KindStream
	KindClipboard
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindNetwork:
		return "network error"
	case KindServer:
		return "server error"
	case KindDecode:
		return "decode error"
	case KindConfig:
		return "configuration error"
	case KindStream:
		return "stream error"
	case KindClipboard:
		return "clipboard error"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for r1-chat.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
	Status  int    // HTTP status for KindServer errors
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by a server error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Backend errors

// RequestFailed reports a non-success HTTP response. The body, when short, is
// kept as context so the server's own error message reaches the log.
func RequestFailed(op Op, status int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	ctx := fmt.Sprintf("server returned status %d", status)
	if body != "" {
		ctx += ": " + body
	}
	return &Error{Op: op, Kind: KindServer, Status: status, Err: errors.New(ctx)}
}

func TransportFailed(op Op, err error) error {
	return E(op, KindNetwork, "request failed", err)
}

func DecodeFailed(op Op, err error) error {
	return E(op, KindDecode, "malformed response", err)
}

func StreamFailed(streamID string, err error) error {
	return E(Op("backend.Subscribe"), KindStream, fmt.Sprintf("stream %s", streamID), err)
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindInvalid, reason)
}

// User input errors. These are the only kinds surfaced as blocking alerts.

func NoActiveConversation() error {
	return E(Op("app.Send"), KindInvalid, "Please select or create a conversation first.")
}

func EmptyMessage() error {
	return E(Op("app.Send"), KindInvalid, "Please type a message before sending.")
}

func ClipboardFailed(err error) error {
	return E(Op("clipboard.Write"), KindClipboard, "failed to copy text", err)
}
