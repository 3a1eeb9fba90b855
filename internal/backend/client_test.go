package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/demo"
	"github.com/scottviteri/r1-chat/internal/errors"
)

func newTestClient(t *testing.T, opts ...demo.Option) (*backend.Client, *demo.Server) {
	t.Helper()
	srv := demo.NewServer(opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL, backend.WithHTTPClient(ts.Client()), backend.WithTimeout(5*time.Second)), srv
}

// collect reads events until a terminal or failure fragment, a transport
// error, or the timeout.
func collect(t *testing.T, sub *backend.Subscription) ([]string, error) {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return got, nil
			}
			if ev.Err != nil {
				return got, ev.Err
			}
			got = append(got, ev.Data)
			if ev.Data == "[DONE]" || strings.HasPrefix(ev.Data, "[Request failed") {
				return got, nil
			}
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
			return nil, nil
		}
	}
}

func TestClient_ConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t, demo.WithResponder(demo.Scripted("Hel", "lo")))

	id, err := client.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	ids, err := client.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("ListConversations() = %v, want [%s]", ids, id)
	}

	streamID, err := client.Send(ctx, backend.SendRequest{
		Text: "hi", ConversationID: id, Temperature: 0.1, TopP: 0.9, MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sub := client.Subscribe(ctx, streamID)
	defer sub.Close()
	if sub.StreamID() != streamID {
		t.Errorf("StreamID() = %q, want %q", sub.StreamID(), streamID)
	}

	got, err := collect(t, sub)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	want := []string{"Hel", "lo", "[DONE]"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("fragments = %q, want %q", got, want)
	}

	msgs, err := client.History(ctx, id)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != backend.RoleUser || msgs[1].Content != "Hello" {
		t.Errorf("History() = %+v", msgs)
	}

	st, err := client.DeletePair(ctx, id, 0)
	if err != nil || !st.OK() {
		t.Fatalf("DeletePair() = %+v, %v", st, err)
	}
	if msgs, _ := srv.Conversation(id); len(msgs) != 0 {
		t.Errorf("pair not removed, log = %+v", msgs)
	}

	st, err = client.DeleteConversation(ctx, id)
	if err != nil || !st.OK() {
		t.Fatalf("DeleteConversation() = %+v, %v", st, err)
	}
	ids, _ = client.ListConversations(ctx)
	if len(ids) != 0 {
		t.Errorf("ListConversations() after delete = %v", ids)
	}
}

func TestClient_SendInvalidConversation(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Send(context.Background(), backend.SendRequest{Text: "hi", ConversationID: "missing"})
	if err == nil {
		t.Fatal("Send() to unknown conversation should fail")
	}
	if !errors.Is(err, errors.KindServer) {
		t.Errorf("kind = %v, want KindServer", errors.GetKind(err))
	}
	if errors.StatusCode(err) != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", errors.StatusCode(err))
	}
	if !strings.Contains(err.Error(), "Invalid conversation_id") {
		t.Errorf("error %q should carry the server message", err)
	}
}

func TestClient_DeletePairRefused(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Seed("c1", []backend.Message{{Role: backend.RoleUser, Content: "A"}})

	st, err := client.DeletePair(context.Background(), "c1", 5)
	if err != nil {
		t.Fatalf("DeletePair() error = %v", err)
	}
	if st.OK() {
		t.Error("DeletePair() with a bad index should not be OK")
	}
	if st.Reason() != "Invalid pair_index" {
		t.Errorf("Reason() = %q", st.Reason())
	}
}

func TestClient_DeleteUnknownConversation(t *testing.T) {
	client, _ := newTestClient(t)

	st, err := client.DeleteConversation(context.Background(), "nope")
	if err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if st.OK() {
		t.Error("deleting an unknown conversation should not be OK")
	}
}

func TestClient_DebugDump(t *testing.T) {
	client, srv := newTestClient(t)
	srv.Seed("c1", []backend.Message{{Role: backend.RoleUser, Content: "A"}})

	dump, err := client.DebugDump(context.Background(), "c1")
	if err != nil {
		t.Fatalf("DebugDump() error = %v", err)
	}
	if !strings.Contains(string(dump), `"status":"ok"`) {
		t.Errorf("DebugDump() = %s", dump)
	}

	if _, err := client.DebugDump(context.Background(), "missing"); !errors.Is(err, errors.KindServer) {
		t.Errorf("DebugDump() for unknown id should be a server error, got %v", err)
	}
}

func TestClient_HistoryUnknownIsEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	msgs, err := client.History(context.Background(), "nope")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("History() = %+v, want empty", msgs)
	}
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := backend.NewClient(url, backend.WithTimeout(time.Second))
	_, err := client.ListConversations(context.Background())
	if !errors.Is(err, errors.KindNetwork) {
		t.Errorf("kind = %v, want KindNetwork (err = %v)", errors.GetKind(err), err)
	}
}

func TestSubscribe_UnknownStream(t *testing.T) {
	client, _ := newTestClient(t)

	sub := client.Subscribe(context.Background(), "bogus")
	defer sub.Close()

	got, err := collect(t, sub)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if len(got) != 1 || got[0] != "[Request failed: invalid stream_id]" {
		t.Errorf("fragments = %q", got)
	}
}

func TestSubscribe_EscapesMarkup(t *testing.T) {
	client, srv := newTestClient(t, demo.WithResponder(demo.Scripted("<think>", "x")))
	srv.Seed("c1", nil)

	streamID, err := client.Send(context.Background(), backend.SendRequest{Text: "q", ConversationID: "c1", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	sub := client.Subscribe(context.Background(), streamID)
	defer sub.Close()

	got, _ := collect(t, sub)
	if len(got) == 0 || got[0] != "&lt;think&gt;" {
		t.Errorf("first fragment = %q, want escaped markup", got)
	}
}

func TestSubscribe_EndWithoutTerminalIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: partial\n\n"))
	}))
	defer ts.Close()

	client := backend.NewClient(ts.URL)
	sub := client.Subscribe(context.Background(), "s1")
	defer sub.Close()

	got, err := collect(t, sub)
	if len(got) != 1 || got[0] != "partial" {
		t.Errorf("fragments = %q", got)
	}
	if !errors.Is(err, errors.KindStream) {
		t.Errorf("expected KindStream transport error, got %v", err)
	}
}

func TestSubscribe_BadStatusIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	sub := backend.NewClient(ts.URL).Subscribe(context.Background(), "s1")
	defer sub.Close()

	if _, err := collect(t, sub); !errors.Is(err, errors.KindStream) {
		t.Errorf("expected KindStream error, got %v", err)
	}
}

func TestSubscribe_CloseStopsDelivery(t *testing.T) {
	client, srv := newTestClient(t,
		demo.WithResponder(demo.Scripted("a", "b", "c", "d")),
		demo.WithFragmentDelay(200*time.Millisecond))
	srv.Seed("c1", nil)

	streamID, err := client.Send(context.Background(), backend.SendRequest{Text: "q", ConversationID: "c1", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	sub := client.Subscribe(context.Background(), streamID)
	sub.Close()
	sub.Close() // idempotent

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription reader did not exit after Close")
	}
	for ev := range sub.Events() {
		if ev.Err != nil {
			t.Errorf("closed subscription should not report transport errors, got %v", ev.Err)
		}
	}
}

func TestStopStream(t *testing.T) {
	client, srv := newTestClient(t,
		demo.WithResponder(demo.Scripted("a", "b", "c", "d", "e", "f")),
		demo.WithFragmentDelay(50*time.Millisecond))
	srv.Seed("c1", nil)

	ctx := context.Background()
	streamID, err := client.Send(ctx, backend.SendRequest{Text: "q", ConversationID: "c1", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	sub := client.Subscribe(ctx, streamID)
	defer sub.Close()

	first := <-sub.Events()
	if first.Data != "a" {
		t.Fatalf("first fragment = %+v", first)
	}

	st, err := client.StopStream(ctx, streamID)
	if err != nil || !st.OK() {
		t.Fatalf("StopStream() = %+v, %v", st, err)
	}

	rest, err := collect(t, sub)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if len(rest) == 0 || rest[len(rest)-1] != "[DONE]" {
		t.Errorf("stream should end with the terminal token, got %q", rest)
	}
	if len(rest) > 3 {
		t.Errorf("server kept producing after stop: %q", rest)
	}
}
