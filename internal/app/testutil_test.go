package app

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/config"
	"github.com/scottviteri/r1-chat/internal/keys"
	"github.com/scottviteri/r1-chat/internal/stream"
	"github.com/scottviteri/r1-chat/internal/surface"
)

// =============================================================================
// Fake backend
// =============================================================================

// fakeBackend is an in-memory Backend. Requests run synchronously inside the
// command that issues them.
type fakeBackend struct {
	ids       []string
	histories map[string][]backend.Message
	nextID    string
	streamIDs []string

	sendErr      error
	deletePairSt *backend.Status

	sent        []backend.SendRequest
	stopped     []string
	deletedConv []string
	deletedPair []int
	dumps       []string
}

func newFakeBackend(ids ...string) *fakeBackend {
	return &fakeBackend{
		ids:       ids,
		histories: make(map[string][]backend.Message),
	}
}

func (f *fakeBackend) ListConversations(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.ids...), nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context) (string, error) {
	if f.nextID == "" {
		return "", errors.New("no id configured")
	}
	f.ids = append(f.ids, f.nextID)
	return f.nextID, nil
}

func (f *fakeBackend) History(ctx context.Context, conversationID string) ([]backend.Message, error) {
	return append([]backend.Message(nil), f.histories[conversationID]...), nil
}

func (f *fakeBackend) Send(ctx context.Context, req backend.SendRequest) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, req)
	f.histories[req.ConversationID] = append(f.histories[req.ConversationID],
		backend.Message{Role: backend.RoleUser, Content: req.Text})
	if len(f.streamIDs) == 0 {
		return "", errors.New("no stream id configured")
	}
	id := f.streamIDs[0]
	f.streamIDs = f.streamIDs[1:]
	return id, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, conversationID string) (backend.Status, error) {
	f.deletedConv = append(f.deletedConv, conversationID)
	for i, id := range f.ids {
		if id == conversationID {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			break
		}
	}
	delete(f.histories, conversationID)
	return backend.Status{Status: "ok"}, nil
}

func (f *fakeBackend) DeletePair(ctx context.Context, conversationID string, pairIndex int) (backend.Status, error) {
	f.deletedPair = append(f.deletedPair, pairIndex)
	if f.deletePairSt != nil {
		return *f.deletePairSt, nil
	}
	h := f.histories[conversationID]
	if pairIndex < 0 || pairIndex >= len(h) {
		return backend.Status{Status: "error", Message: "Invalid pair index"}, nil
	}
	end := pairIndex + 1
	if end < len(h) && h[end].Role == backend.RoleAssistant {
		end++
	}
	f.histories[conversationID] = append(h[:pairIndex:pairIndex], h[end:]...)
	return backend.Status{Status: "ok"}, nil
}

func (f *fakeBackend) StopStream(ctx context.Context, streamID string) (backend.Status, error) {
	f.stopped = append(f.stopped, streamID)
	return backend.Status{Status: "ok"}, nil
}

func (f *fakeBackend) DebugDump(ctx context.Context, conversationID string) (backend.DebugDump, error) {
	f.dumps = append(f.dumps, conversationID)
	return backend.DebugDump(`{"messages":[]}`), nil
}

// =============================================================================
// Fake push streams
// =============================================================================

// fakeSub is a push stream the test feeds by hand.
type fakeSub struct {
	streamID string
	events   chan backend.Event
	closed   bool
}

func (s *fakeSub) Events() <-chan backend.Event { return s.events }
func (s *fakeSub) Close()                       { s.closed = true }

// fakeDialer records every subscription it opens.
type fakeDialer struct {
	subs map[string]*fakeSub
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{subs: make(map[string]*fakeSub)}
}

func (d *fakeDialer) dial(ctx context.Context, streamID string) stream.Subscription {
	s := &fakeSub{streamID: streamID, events: make(chan backend.Event, 16)}
	d.subs[streamID] = s
	return s
}

// =============================================================================
// Model helpers
// =============================================================================

// testConfig returns defaults with typesetting off so region text is plain.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SetUI(config.UI{Markdown: false, Notifications: false})
	return cfg
}

type testEnv struct {
	m        *Model
	be       *fakeBackend
	dialer   *fakeDialer
	copied   []string
	notified []string
}

// newTestEnv creates a sized model wired to a fake backend.
func newTestEnv(t *testing.T, be *fakeBackend) *testEnv {
	t.Helper()
	env := &testEnv{be: be, dialer: newFakeDialer()}
	env.m = New(testConfig(), be, env.dialer.dial,
		WithVersion("0.0.0-test"),
		WithClipboard(func(text string) error {
			env.copied = append(env.copied, text)
			return nil
		}),
		WithNotifier(func(id string) error {
			env.notified = append(env.notified, id)
			return nil
		}),
	)
	env.m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(env.m.Shutdown)
	return env
}

// update feeds msg to the model and returns the resulting command.
func (e *testEnv) update(msg tea.Msg) tea.Cmd {
	_, cmd := e.m.Update(msg)
	return cmd
}

// run executes a single (non-batched, non-tick) command and feeds its message
// back to the model, returning the follow-up command.
func (e *testEnv) run(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	return e.update(cmd())
}

// load delivers the fake backend's listing, selecting selectID when set, and
// applies its history.
func (e *testEnv) load(t *testing.T, selectID string) {
	t.Helper()
	cmd := e.run(t, e.m.loadConversations(selectID))
	if selectID != "" {
		e.run(t, cmd)
	}
}

func (e *testEnv) key(k string) tea.Cmd {
	return e.update(keyPress(k))
}

func (e *testEnv) typeText(text string) {
	for _, ch := range text {
		e.key(string(ch))
	}
}

// send types text into the chat, presses enter and delivers the backend's
// stream id, leaving the new binding live.
func (e *testEnv) send(t *testing.T, text string) *stream.Binding {
	t.Helper()
	if e.m.Focus() != FocusChat {
		e.key(keys.Tab)
	}
	e.typeText(text)
	e.run(t, e.key(keys.Enter))
	b, ok := e.m.streams.Binding(e.m.Selected())
	if !ok {
		t.Fatalf("no binding after sending %q", text)
	}
	return b
}

// emit delivers one fragment for b.
func (e *testEnv) emit(b *stream.Binding, data string) {
	e.update(StreamEventMsg{ConversationID: b.ConversationID, BindingID: b.ID, Event: backend.Event{Data: data}})
}

func (e *testEnv) visible(t *testing.T) *surface.Surface {
	t.Helper()
	sf, ok := e.m.surfaces.Visible()
	if !ok {
		t.Fatal("no visible surface")
	}
	return sf
}

// keyPress creates a tea.KeyPressMsg for the given key string.
// Examples: "a", "enter", "tab", "esc", "ctrl+c", "up", "down"
func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case keys.Enter:
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case keys.Tab:
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case keys.Escape:
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.PgUp:
		return tea.KeyPressMsg{Code: tea.KeyPgUp}
	case keys.PgDown:
		return tea.KeyPressMsg{Code: tea.KeyPgDown}
	case keys.CtrlUp:
		return tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModCtrl}
	case keys.CtrlDown:
		return tea.KeyPressMsg{Code: tea.KeyDown, Mod: tea.ModCtrl}
	case keys.CtrlC:
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case keys.CtrlB:
		return tea.KeyPressMsg{Code: 'b', Mod: tea.ModCtrl}
	case keys.CtrlS:
		return tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
	case keys.CtrlG:
		return tea.KeyPressMsg{Code: 'g', Mod: tea.ModCtrl}
	case keys.CtrlX:
		return tea.KeyPressMsg{Code: 'x', Mod: tea.ModCtrl}
	case keys.CtrlY:
		return tea.KeyPressMsg{Code: 'y', Mod: tea.ModCtrl}
	default:
		// Regular character - for single characters, set both Code and Text
		if len([]rune(key)) == 1 {
			return tea.KeyPressMsg{Code: []rune(key)[0], Text: key}
		}
		// Fallback for unknown keys
		return tea.KeyPressMsg{Text: key}
	}
}
