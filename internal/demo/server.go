// Package demo provides an in-process chat server that speaks the same HTTP
// and server-sent-events protocol as the real backend. It keeps conversations
// in memory, optionally mirrored to a Store, and generates replies with a
// pluggable Responder, so the client can be exercised end to end without a
// model.
package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/logger"
)

// Markers the server writes into the push stream.
const (
	TerminalToken = "[DONE]"
	FailurePrefix = "[Request failed"
)

// Server is an http.Handler implementing the chat backend.
type Server struct {
	mu            sync.Mutex
	order         []string
	conversations map[string][]backend.Message
	streams       map[string]*pendingStream

	store         Store
	responder     Responder
	fragmentDelay time.Duration
	newID         func() string
	mux           *http.ServeMux
}

type pendingStream struct {
	conversationID string
	params         Params
	stop           bool

	// placeholder is the index of the assistant message the reply is written
	// into, or -1 before the stream is read and after that message is deleted.
	placeholder int
}

// detachLocked repoints the placeholders of conversationID's streams after
// n messages starting at at were removed. n < 0 means the whole log is gone.
func (s *Server) detachLocked(conversationID string, at, n int) {
	for _, ps := range s.streams {
		if ps.conversationID != conversationID || ps.placeholder < 0 {
			continue
		}
		switch {
		case n < 0 || (ps.placeholder >= at && ps.placeholder < at+n):
			ps.placeholder = -1
		case ps.placeholder >= at+n:
			ps.placeholder -= n
		}
	}
}

// Option configures a Server.
type Option func(*Server)

// WithResponder sets how replies are generated. Defaults to Reasoner.
func WithResponder(r Responder) Option {
	return func(s *Server) {
		s.responder = r
	}
}

// WithFragmentDelay pauses between fragments so streaming is visible.
func WithFragmentDelay(d time.Duration) Option {
	return func(s *Server) {
		s.fragmentDelay = d
	}
}

// WithStore mirrors every change to st. Call Restore to load what it holds.
func WithStore(st Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithIDGenerator replaces uuid generation, for deterministic tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Server) {
		s.newID = f
	}
}

// NewServer creates an empty server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		conversations: make(map[string][]backend.Message),
		streams:       make(map[string]*pendingStream),
		responder:     Reasoner{},
		newID:         func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+backend.PathList, s.handleList)
	mux.HandleFunc("POST "+backend.PathNewConversation, s.handleNew)
	mux.HandleFunc("GET "+backend.PathHistory, s.handleHistory)
	mux.HandleFunc("POST "+backend.PathSend, s.handleSend)
	mux.HandleFunc("GET "+backend.PathStream, s.handleStream)
	mux.HandleFunc("POST "+backend.PathStop, s.handleStop)
	mux.HandleFunc("POST "+backend.PathDeleteConversation, s.handleDeleteConversation)
	mux.HandleFunc("POST "+backend.PathDeletePair, s.handleDeletePair)
	mux.HandleFunc("POST "+backend.PathDebug, s.handleDebug)
	s.mux = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Restore replaces the in-memory conversations with the store's contents.
// Without a store it does nothing.
func (s *Server) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	order, logs, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring conversations: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.conversations = logs
	logger.Info("demo: restored %d conversations", len(order))
	return nil
}

// Seed installs a conversation with the given log, replacing any existing one.
func (s *Server) Seed(id string, msgs []backend.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		s.order = append(s.order, id)
	}
	s.conversations[id] = append([]backend.Message(nil), msgs...)
	s.detachLocked(id, 0, -1)
	s.persistLocked(id)
}

// persistLocked writes one conversation to the store. Failures are logged;
// the in-memory copy stays authoritative.
func (s *Server) persistLocked(id string) {
	if s.store == nil {
		return
	}
	var err error
	if msgs, ok := s.conversations[id]; ok {
		err = s.store.Save(context.Background(), id, msgs)
	} else {
		err = s.store.Delete(context.Background(), id)
	}
	if err != nil {
		logger.Error("demo: failed to persist conversation %s: %v", id, err)
	}
}

// Conversation returns a copy of a conversation's log.
func (s *Server) Conversation(id string) ([]backend.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	return append([]backend.Message(nil), msgs...), true
}

// StopRequested reports whether a stop was requested for a stream that has
// not finished yet.
func (s *Server) StopRequested(streamID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.streams[streamID]
	return ok && ps.stop
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("demo: failed to write response: %v", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	ids := append([]string{}, s.order...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleNew(w http.ResponseWriter, _ *http.Request) {
	id := s.newID()
	s.Seed(id, nil)
	logger.Info("demo: created conversation %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"conversation_id": id})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	msgs, _ := s.Conversation(r.URL.Query().Get("conversation_id"))
	if msgs == nil {
		msgs = []backend.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req backend.SendRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[req.ConversationID]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid conversation_id"})
		return
	}
	s.conversations[req.ConversationID] = append(s.conversations[req.ConversationID],
		backend.Message{Role: backend.RoleUser, Content: req.Text})
	s.persistLocked(req.ConversationID)

	streamID := s.newID()
	s.streams[streamID] = &pendingStream{
		conversationID: req.ConversationID,
		params:         Params{Temperature: req.Temperature, TopP: req.TopP, MaxTokens: req.MaxTokens},
		placeholder:    -1,
	}
	writeJSON(w, http.StatusOK, map[string]string{"stream_id": streamID})
}

// writeEvent writes one SSE message event, one data line per text line.
func writeEvent(w http.ResponseWriter, data string) {
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func escapeMarkup(s string) string {
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	streamID := r.URL.Query().Get("stream_id")
	log := logger.ComponentLogger("DemoServer").With("streamID", streamID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.mu.Lock()
	ps, ok := s.streams[streamID]
	var history []backend.Message
	if ok {
		// Placeholder the reply is accumulated into.
		msgs := append(s.conversations[ps.conversationID], backend.Message{Role: backend.RoleAssistant})
		s.conversations[ps.conversationID] = msgs
		ps.placeholder = len(msgs) - 1
		history = append(history, msgs...)
		s.persistLocked(ps.conversationID)
	}
	s.mu.Unlock()

	if !ok {
		log.Warn("unknown stream")
		writeEvent(w, FailurePrefix+": invalid stream_id]")
		return
	}
	defer func() {
		s.mu.Lock()
		delete(s.streams, streamID)
		s.mu.Unlock()
	}()

	fragments, err := s.responder.Reply(r.Context(), history[:len(history)-1], ps.params)
	if err != nil {
		log.Warn("responder failed", "error", err)
		writeEvent(w, fmt.Sprintf("%s: %v]", FailurePrefix, err))
		return
	}

	detached := false
	for i, frag := range fragments {
		if s.fragmentDelay > 0 {
			select {
			case <-r.Context().Done():
				log.Info("client went away", "sent", i)
				return
			case <-time.After(s.fragmentDelay):
			}
		}
		if r.Context().Err() != nil {
			log.Info("client went away", "sent", i)
			return
		}

		s.mu.Lock()
		stopped := ps.stop
		msgs := s.conversations[ps.conversationID]
		switch {
		case stopped:
		case ps.placeholder >= 0 && ps.placeholder < len(msgs):
			msgs[ps.placeholder].Content += frag
			s.persistLocked(ps.conversationID)
		case !detached:
			// The pair was deleted mid-stream; the client still gets the reply.
			detached = true
			log.Info("reply no longer stored", "sent", i)
		}
		s.mu.Unlock()
		if stopped {
			log.Info("stop requested", "sent", i)
			break
		}

		writeEvent(w, escapeMarkup(frag))
	}
	writeEvent(w, TerminalToken)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StreamID string `json:"stream_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	s.mu.Lock()
	if ps, ok := s.streams[req.StreamID]; ok {
		ps.stop = true
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, backend.Status{Status: "ok", Message: "Stop request for " + req.StreamID})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	_, ok := s.conversations[req.ConversationID]
	if ok {
		delete(s.conversations, req.ConversationID)
		s.detachLocked(req.ConversationID, 0, -1)
		for i, id := range s.order {
			if id == req.ConversationID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.persistLocked(req.ConversationID)
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, backend.Status{Status: "error", Message: "Invalid conversation_id"})
		return
	}
	writeJSON(w, http.StatusOK, backend.Status{Status: "ok", Message: fmt.Sprintf("Conversation %s deleted", req.ConversationID)})
}

func (s *Server) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		PairIndex      int    `json:"pair_index"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, ok := s.conversations[req.ConversationID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, backend.Status{Status: "error", Message: "Unknown conversation"})
		return
	}
	i := req.PairIndex
	if i < 0 || i >= len(msgs) {
		writeJSON(w, http.StatusBadRequest, backend.Status{Status: "error", Message: "Invalid pair_index"})
		return
	}

	n := 1
	if i+1 < len(msgs) && msgs[i+1].Role == backend.RoleAssistant {
		n = 2
	}
	msgs = append(msgs[:i], msgs[i+n:]...)
	s.conversations[req.ConversationID] = msgs
	s.detachLocked(req.ConversationID, i, n)
	s.persistLocked(req.ConversationID)
	writeJSON(w, http.StatusOK, backend.Status{Status: "ok"})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	msgs, ok := s.Conversation(req.ConversationID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Conversation not found: " + req.ConversationID})
		return
	}
	dump, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	logger.Info("demo: debug dump for %s:\n%s", req.ConversationID, dump)
	writeJSON(w, http.StatusOK, backend.Status{
		Status:  "ok",
		Message: fmt.Sprintf("Printed %d messages of %s to the server log", len(msgs), req.ConversationID),
	})
}
