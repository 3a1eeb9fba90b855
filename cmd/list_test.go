package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/demo"
)

func newTestClient(t *testing.T, srv *demo.Server) *backend.Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL)
}

func TestListConversations(t *testing.T) {
	srv := demo.NewServer()
	srv.Seed("a", nil)
	srv.Seed("b", nil)

	var out bytes.Buffer
	if err := listConversations(context.Background(), newTestClient(t, srv), &out); err != nil {
		t.Fatalf("listConversations() error = %v", err)
	}
	if got := out.String(); got != "a\nb\n" {
		t.Errorf("output = %q, want %q", got, "a\nb\n")
	}
}

func TestListConversations_ServerDown(t *testing.T) {
	client := backend.NewClient("http://127.0.0.1:1")
	err := listConversations(context.Background(), client, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "error listing conversations") {
		t.Errorf("err = %v", err)
	}
}

func TestDumpConversation_IndentsJSON(t *testing.T) {
	srv := demo.NewServer()
	srv.Seed("a", []backend.Message{{Role: backend.RoleUser, Content: "hi"}})

	var out bytes.Buffer
	if err := dumpConversation(context.Background(), newTestClient(t, srv), "a", &out); err != nil {
		t.Fatalf("dumpConversation() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "\n  ") {
		t.Errorf("output should be indented, got %q", got)
	}
	for _, want := range []string{`"status": "ok"`, "Printed 1 messages of a"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q, got %q", want, got)
		}
	}
}

type rawDumper string

func (r rawDumper) DebugDump(ctx context.Context, conversationID string) (backend.DebugDump, error) {
	return backend.DebugDump(r), nil
}

func TestDumpConversation_NonJSONPassthrough(t *testing.T) {
	var out bytes.Buffer
	if err := dumpConversation(context.Background(), rawDumper("not json"), "a", &out); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "not json\n" {
		t.Errorf("output = %q", got)
	}
}
