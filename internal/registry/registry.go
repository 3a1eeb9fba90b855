// Package registry tracks the conversations the server knows about and which
// one the user has selected. The server's listing is the only source of
// truth; the registry never adds or removes ids on its own.
package registry

// Registry holds the ordered conversation ids and the selection.
type Registry struct {
	ids      []string
	selected string
	cursor   int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// SetConversations replaces the listing with ids as returned by the server.
// The selection is kept as-is even when the id disappeared; callers clear it
// explicitly after a delete. The sidebar cursor is clamped.
func (r *Registry) SetConversations(ids []string) {
	r.ids = append([]string(nil), ids...)
	if r.cursor >= len(r.ids) {
		r.cursor = len(r.ids) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
}

// Conversations returns the ids in server order.
func (r *Registry) Conversations() []string {
	return r.ids
}

// Len returns the number of conversations.
func (r *Registry) Len() int {
	return len(r.ids)
}

// Contains reports whether id is in the listing.
func (r *Registry) Contains(id string) bool {
	return r.indexOf(id) >= 0
}

func (r *Registry) indexOf(id string) int {
	for i, v := range r.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Select makes id the active conversation and moves the cursor onto it.
func (r *Registry) Select(id string) {
	r.selected = id
	if i := r.indexOf(id); i >= 0 {
		r.cursor = i
	}
}

// Selected returns the active conversation id, or "" when none is selected.
func (r *Registry) Selected() string {
	return r.selected
}

// HasSelection reports whether a conversation is active.
func (r *Registry) HasSelection() bool {
	return r.selected != ""
}

// ClearSelection leaves no conversation active.
func (r *Registry) ClearSelection() {
	r.selected = ""
}

// Highlights derives the highlight state of every listed conversation from
// the selection: at most one entry is true.
func (r *Registry) Highlights() []bool {
	out := make([]bool, len(r.ids))
	for i, id := range r.ids {
		out[i] = id == r.selected
	}
	return out
}

// Cursor returns the sidebar cursor position.
func (r *Registry) Cursor() int {
	return r.cursor
}

// MoveCursor moves the sidebar cursor by delta, clamped to the listing.
func (r *Registry) MoveCursor(delta int) {
	if len(r.ids) == 0 {
		r.cursor = 0
		return
	}
	c := r.cursor + delta
	if c < 0 {
		c = 0
	}
	if c >= len(r.ids) {
		c = len(r.ids) - 1
	}
	r.cursor = c
}

// AtCursor returns the conversation under the sidebar cursor.
func (r *Registry) AtCursor() (string, bool) {
	if r.cursor < 0 || r.cursor >= len(r.ids) {
		return "", false
	}
	return r.ids[r.cursor], true
}
