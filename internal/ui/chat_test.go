package ui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/surface"
)

func newTestChat() *Chat {
	c := NewChat()
	c.SetSize(80, 30)
	return c
}

func newTestSurface(id string) *surface.Surface {
	set := surface.NewSet(surface.Labels{User: "You", Assistant: "R1"}, nil)
	return set.Get(id)
}

func TestChat_NoSurface(t *testing.T) {
	c := newTestChat()
	if !strings.Contains(ansi.Strip(c.View()), "Select or create a conversation") {
		t.Error("placeholder missing")
	}
}

func TestChat_RendersBlocksAndNotices(t *testing.T) {
	c := newTestChat()
	s := newTestSurface("c1")
	s.Rebuild([]backend.Message{
		{Role: backend.RoleUser, Content: "2+2?"},
		{Role: backend.RoleAssistant, Content: "4 &lt;done&gt;"},
	})
	s.AppendNotice("[User stopped the stream]")

	c.SetSurface(s)
	view := ansi.Strip(c.View())

	for _, want := range []string{"You: 2+2?", "R1: 4 <done>", "[User stopped the stream]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestChat_RefreshFollowsVersion(t *testing.T) {
	c := newTestChat()
	s := newTestSurface("c1")
	c.SetSurface(s)

	b := s.AddLiveBlock("hello")
	before := c.shownVersion
	c.Refresh()
	if c.shownVersion == before {
		t.Fatal("Refresh did not pick up the new block")
	}

	b.Assistant.Append("R1: streamed text")
	c.Refresh()
	if !strings.Contains(ansi.Strip(c.View()), "streamed text") {
		t.Error("appended fragment not rendered")
	}

	v := c.shownVersion
	c.Refresh()
	if c.shownVersion != v {
		t.Error("Refresh without changes should be a no-op")
	}
}

func TestChat_AutoScrollsOnAppend(t *testing.T) {
	c := newTestChat()
	s := newTestSurface("c1")
	c.SetSurface(s)

	b := s.AddLiveBlock("long")
	for i := 0; i < 100; i++ {
		b.Assistant.Append("line\n")
	}
	c.Refresh()
	if !c.viewport.AtBottom() {
		t.Error("viewport should be at the bottom after an append")
	}
}

func TestChat_SwitchSurface(t *testing.T) {
	c := newTestChat()
	a := newTestSurface("a")
	a.AddLiveBlock("from a")
	b := newTestSurface("b")
	b.AddLiveBlock("from b")

	c.SetSurface(a)
	c.SetSurface(b)
	view := ansi.Strip(c.View())
	if strings.Contains(view, "from a") || !strings.Contains(view, "from b") {
		t.Errorf("expected only surface b, got %q", view)
	}
	if c.Surface() != b {
		t.Error("Surface() should return the shown surface")
	}
}

func TestChat_Input(t *testing.T) {
	c := newTestChat()
	c.SetFocused(true)

	for _, r := range "  hi  " {
		c.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	if got := c.GetInput(); got != "hi" {
		t.Errorf("GetInput() = %q, want trimmed %q", got, "hi")
	}

	c.ClearInput()
	if got := c.GetInput(); got != "" {
		t.Errorf("after ClearInput got %q", got)
	}
}

func TestChat_UnfocusedIgnoresKeys(t *testing.T) {
	c := newTestChat()
	c.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if c.GetInput() != "" {
		t.Error("unfocused chat should not take input")
	}
}

func TestChat_StreamingStatus(t *testing.T) {
	c := newTestChat()
	c.SetSurface(newTestSurface("c1"))

	c.SetStreaming(true)
	if !strings.Contains(ansi.Strip(c.View()), "esc to stop") {
		t.Error("streaming status missing")
	}
	c.SetStreaming(false)
	if strings.Contains(ansi.Strip(c.View()), "esc to stop") {
		t.Error("streaming status shown while idle")
	}
}
