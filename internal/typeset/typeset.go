// Package typeset renders message text for the terminal: markdown through
// glamour, with TeX maths rewritten into readable Unicode code spans first.
package typeset

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is used when the caller does not know the width yet.
const DefaultWidth = 80

// Renderer typesets text with a glamour style. Term renderers are cached per
// wrap width. Safe for concurrent use.
type Renderer struct {
	style string

	mu    sync.Mutex
	cache map[int]*glamour.TermRenderer
}

// New creates a renderer using a glamour standard style name ("dark",
// "light", "notty", ...).
func New(style string) *Renderer {
	if style == "" {
		style = "dark"
	}
	return &Renderer{style: style, cache: make(map[int]*glamour.TermRenderer)}
}

// Typeset renders text wrapped to width.
func (r *Renderer) Typeset(text string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	tr, err := r.renderer(width)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := tr.Render(Maths(text))
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

func (r *Renderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.cache[width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.cache[width] = tr
	return tr, nil
}
