package registry

import "testing"

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func TestHighlights(t *testing.T) {
	r := New()
	r.SetConversations([]string{"a", "b", "c"})

	if n := countTrue(r.Highlights()); n != 0 {
		t.Errorf("no selection: %d highlighted, want 0", n)
	}

	r.Select("b")
	h := r.Highlights()
	if countTrue(h) != 1 || !h[1] {
		t.Errorf("Highlights() = %v, want only b", h)
	}

	r.Select("c")
	h = r.Highlights()
	if countTrue(h) != 1 || !h[2] {
		t.Errorf("Highlights() = %v, want only c", h)
	}

	r.ClearSelection()
	if countTrue(r.Highlights()) != 0 {
		t.Error("ClearSelection should remove the highlight")
	}
}

func TestHighlightsAfterRefresh(t *testing.T) {
	r := New()
	r.SetConversations([]string{"a", "b"})
	r.Select("b")

	// Server listing changed order and gained an entry.
	r.SetConversations([]string{"new", "b", "a"})
	h := r.Highlights()
	if countTrue(h) != 1 || !h[1] {
		t.Errorf("Highlights() = %v, want b at position 1", h)
	}

	// The selected id vanished from the listing.
	r.SetConversations([]string{"a"})
	if countTrue(r.Highlights()) != 0 {
		t.Error("a selection absent from the listing highlights nothing")
	}
	if r.Selected() != "b" {
		t.Error("SetConversations should not change the selection itself")
	}
}

func TestSelectMovesCursor(t *testing.T) {
	r := New()
	r.SetConversations([]string{"a", "b", "c"})
	r.Select("c")
	if r.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", r.Cursor())
	}
	if id, ok := r.AtCursor(); !ok || id != "c" {
		t.Errorf("AtCursor() = %q, %v", id, ok)
	}
	if !r.HasSelection() || r.Selected() != "c" {
		t.Error("selection should be c")
	}
}

func TestMoveCursor(t *testing.T) {
	r := New()
	r.MoveCursor(1)
	if _, ok := r.AtCursor(); ok {
		t.Error("empty registry has nothing under the cursor")
	}

	r.SetConversations([]string{"a", "b", "c"})
	r.MoveCursor(1)
	r.MoveCursor(1)
	r.MoveCursor(1)
	if r.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want clamped to 2", r.Cursor())
	}
	r.MoveCursor(-5)
	if r.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want clamped to 0", r.Cursor())
	}

	r.MoveCursor(2)
	r.SetConversations([]string{"a"})
	if r.Cursor() != 0 {
		t.Errorf("Cursor() = %d after shrink, want 0", r.Cursor())
	}
}

func TestContains(t *testing.T) {
	r := New()
	ids := []string{"a", "b"}
	r.SetConversations(ids)
	ids[0] = "mutated"

	if !r.Contains("a") || r.Contains("mutated") {
		t.Error("SetConversations should copy its input")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d", r.Len())
	}
}
