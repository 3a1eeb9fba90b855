package surface

// Set caches one Surface per conversation. Surfaces are created lazily and
// kept when hidden, so switching conversations preserves a stream that is
// still writing into a hidden surface.
type Set struct {
	surfaces map[string]*Surface
	visible  string
	ts       Typesetter
	labels   Labels
	width    int
}

// NewSet creates an empty set. ts may be nil to disable typesetting.
func NewSet(labels Labels, ts Typesetter) *Set {
	return &Set{
		surfaces: make(map[string]*Surface),
		ts:       ts,
		labels:   labels,
	}
}

// Labels returns the role labels used by every surface in the set.
func (s *Set) Labels() Labels {
	return s.labels
}

// Get returns the surface for id, creating it on first use. New surfaces are
// hidden unless id is the visible conversation.
func (s *Set) Get(id string) *Surface {
	if sf, ok := s.surfaces[id]; ok {
		return sf
	}
	sf := &Surface{ID: id, set: s, cursor: -1, width: s.width, hidden: id != s.visible}
	s.surfaces[id] = sf
	return sf
}

// Lookup returns the surface for id without creating it.
func (s *Set) Lookup(id string) (*Surface, bool) {
	sf, ok := s.surfaces[id]
	return sf, ok
}

// Show makes id's surface the only visible one.
func (s *Set) Show(id string) *Surface {
	s.visible = id
	sf := s.Get(id)
	for _, other := range s.surfaces {
		other.hidden = other != sf
	}
	return sf
}

// HideAll leaves no surface visible.
func (s *Set) HideAll() {
	s.visible = ""
	for _, sf := range s.surfaces {
		sf.hidden = true
	}
}

// Visible returns the visible surface, if any.
func (s *Set) Visible() (*Surface, bool) {
	if s.visible == "" {
		return nil, false
	}
	sf, ok := s.surfaces[s.visible]
	return sf, ok
}

// Remove empties and forgets id's surface.
func (s *Set) Remove(id string) {
	if sf, ok := s.surfaces[id]; ok {
		sf.Clear()
		delete(s.surfaces, id)
	}
	if s.visible == id {
		s.visible = ""
	}
}

// Len returns the number of cached surfaces.
func (s *Set) Len() int {
	return len(s.surfaces)
}

// SetWidth updates the wrap width of every surface.
func (s *Set) SetWidth(w int) {
	s.width = w
	for _, sf := range s.surfaces {
		sf.SetWidth(w)
	}
}

// SetTypesetter swaps the typesetter and re-renders every surface. A nil ts
// shows plain text.
func (s *Set) SetTypesetter(ts Typesetter) {
	s.ts = ts
	for _, sf := range s.surfaces {
		for _, b := range sf.blocks {
			b.User.retypeset()
			b.Assistant.retypeset()
		}
		sf.touch()
	}
}
