package surface

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/scottviteri/r1-chat/internal/logger"
)

// Typesetter renders a region's text for display, e.g. markdown and maths.
type Typesetter interface {
	Typeset(text string, width int) (string, error)
}

// Region is an append-only text area inside a pair block. Text is stored
// exactly as received; Display and View derive what is shown.
type Region struct {
	owner *Surface
	raw   strings.Builder

	// rendered is the typeset form of raw[:typesetAt].
	rendered  string
	typesetAt int
	typesets  int
}

func newRegion(owner *Surface, initial string) *Region {
	r := &Region{owner: owner}
	r.raw.WriteString(initial)
	return r
}

// Append adds text to the end of the region.
func (r *Region) Append(text string) {
	if text == "" {
		return
	}
	r.raw.WriteString(text)
	r.owner.touch()
}

// Typeset re-renders everything appended so far. Text appended afterwards is
// shown plain after the rendered part until the next typeset.
func (r *Region) Typeset() {
	r.typesets++
	r.typesetAt = r.raw.Len()
	r.rendered = ""

	if ts := r.owner.typesetter(); ts != nil && r.typesetAt > 0 {
		out, err := ts.Typeset(Display(r.raw.String()), r.owner.width)
		if err != nil {
			logger.WithConversation(r.owner.ID).Warn("typeset failed", "error", err)
		} else {
			r.rendered = strings.TrimRight(out, "\n ")
		}
	}
	r.owner.touch()
}

// Raw returns the text exactly as appended.
func (r *Region) Raw() string {
	return r.raw.String()
}

// Typesets returns how many times the region was typeset.
func (r *Region) Typesets() int {
	return r.typesets
}

// Empty reports whether nothing has been written to the region.
func (r *Region) Empty() bool {
	return r.raw.Len() == 0
}

// View returns the text to draw: the last typeset rendering followed by any
// plain tail appended since.
func (r *Region) View() string {
	raw := r.raw.String()
	if r.rendered == "" {
		return Display(raw)
	}
	tail := Display(raw[r.typesetAt:])
	if tail == "" {
		return r.rendered
	}
	return r.rendered + "\n" + tail
}

// retypeset refreshes the rendering after a width change, without counting
// as a cadence typeset.
func (r *Region) retypeset() {
	if r.typesets == 0 {
		return
	}
	n := r.typesets
	r.Typeset()
	r.typesets = n
}

var unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">")

// Display converts stored text to what the user should see. The server
// escapes angle brackets for HTML clients; terminal escape sequences coming
// from the model are removed so they cannot drive the terminal.
func Display(s string) string {
	return unescaper.Replace(ansi.Strip(s))
}
