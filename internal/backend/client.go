// Package backend is the HTTP client for the chat server: conversation
// management requests plus the server-sent-events push stream that carries
// assistant output.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scottviteri/r1-chat/internal/errors"
	"github.com/scottviteri/r1-chat/internal/logger"
)

// Endpoint paths.
const (
	PathList               = "/list_conversations"
	PathNewConversation    = "/new_conversation"
	PathHistory            = "/conversation_history"
	PathSend               = "/send_message"
	PathStream             = "/stream"
	PathStop               = "/stop_stream"
	PathDeleteConversation = "/delete_conversation"
	PathDeletePair         = "/delete_pair"
	PathDebug              = "/debug_print"
)

// maxErrorBody bounds how much of an error response is read for logging.
const maxErrorBody = 4096

// Client talks to a chat server. It is safe for concurrent use.
type Client struct {
	baseURL string
	// http is used for request/response calls and carries the request timeout.
	http *http.Client
	// stream has no timeout: a push stream stays open until it terminates.
	stream *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for non-streaming requests. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the transport used for both requests and streams,
// e.g. an httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		timeout := c.http.Timeout
		c.http = &http.Client{Transport: hc.Transport, Timeout: timeout}
		c.stream = &http.Client{Transport: hc.Transport}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		stream:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListConversations returns every conversation id known to the server, in
// server order.
func (c *Client) ListConversations(ctx context.Context) ([]string, error) {
	const op = errors.Op("backend.ListConversations")
	var ids []string
	if err := c.do(ctx, op, http.MethodGet, PathList, nil, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CreateConversation asks the server for a new, empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	const op = errors.Op("backend.CreateConversation")
	var out conversationCreated
	if err := c.do(ctx, op, http.MethodPost, PathNewConversation, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.ConversationID == "" {
		return "", errors.DecodeFailed(op, fmt.Errorf("response has no conversation_id"))
	}
	return out.ConversationID, nil
}

// History returns the full message log of a conversation. Unknown ids yield
// an empty log, matching the server.
func (c *Client) History(ctx context.Context, conversationID string) ([]Message, error) {
	const op = errors.Op("backend.History")
	path := PathHistory + "?conversation_id=" + url.QueryEscape(conversationID)
	var msgs []Message
	if err := c.do(ctx, op, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Send submits a user message and returns the id of the stream that will
// carry the reply.
func (c *Client) Send(ctx context.Context, req SendRequest) (string, error) {
	const op = errors.Op("backend.Send")
	var out streamStarted
	if err := c.do(ctx, op, http.MethodPost, PathSend, req, &out); err != nil {
		return "", err
	}
	if out.StreamID == "" {
		return "", errors.DecodeFailed(op, fmt.Errorf("response has no stream_id"))
	}
	return out.StreamID, nil
}

// DeleteConversation removes a conversation. A refusal from the server is
// reported through the returned Status, not the error.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) (Status, error) {
	return c.postStatus(ctx, errors.Op("backend.DeleteConversation"), PathDeleteConversation, conversationRef{conversationID})
}

// DeletePair removes the message at pairIndex and, when the following message
// is an assistant reply, that reply as well.
func (c *Client) DeletePair(ctx context.Context, conversationID string, pairIndex int) (Status, error) {
	return c.postStatus(ctx, errors.Op("backend.DeletePair"), PathDeletePair, pairRef{conversationID, pairIndex})
}

// StopStream asks the server to stop producing fragments for streamID.
func (c *Client) StopStream(ctx context.Context, streamID string) (Status, error) {
	return c.postStatus(ctx, errors.Op("backend.StopStream"), PathStop, streamRef{streamID})
}

// DebugDump requests the server-side diagnostic dump for a conversation. The
// payload is returned verbatim.
func (c *Client) DebugDump(ctx context.Context, conversationID string) (DebugDump, error) {
	const op = errors.Op("backend.DebugDump")
	resp, err := c.send(ctx, op, http.MethodPost, PathDebug, conversationRef{conversationID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.TransportFailed(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.RequestFailed(op, resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, errors.DecodeFailed(op, fmt.Errorf("payload is not JSON"))
	}
	return DebugDump(body), nil
}

// postStatus posts body and decodes a Status. Non-2xx responses that still
// carry a status payload are returned as a Status so callers can show the
// server's message; anything else becomes an error.
func (c *Client) postStatus(ctx context.Context, op errors.Op, path string, body any) (Status, error) {
	resp, err := c.send(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return Status{}, errors.TransportFailed(op, err)
	}

	var st Status
	decodeErr := json.Unmarshal(raw, &st)
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	switch {
	case decodeErr == nil && (st.Status != "" || st.Error != ""):
		if !ok && st.Status == "ok" {
			st.Status = "error"
		}
		return st, nil
	case !ok:
		return Status{}, errors.RequestFailed(op, resp.StatusCode, string(raw))
	case decodeErr != nil:
		return Status{}, errors.DecodeFailed(op, decodeErr)
	default:
		// 2xx with an empty object.
		return Status{Status: "ok"}, nil
	}
}

// do performs a request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, op errors.Op, method, path string, body, out any) error {
	resp, err := c.send(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			raw = []byte(eb.Error)
		}
		return errors.RequestFailed(op, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.DecodeFailed(op, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op errors.Op, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errors.E(op, errors.KindInvalid, "marshaling request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.E(op, errors.KindInvalid, "creating request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("backend: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.TransportFailed(op, err)
	}
	return resp, nil
}
