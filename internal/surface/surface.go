// Package surface holds the per-conversation render state: ordered pair
// blocks and notices, the cursor used for block actions, and which
// conversation is visible. It contains no drawing code; internal/ui draws
// what this package describes.
package surface

import (
	"strings"

	"github.com/scottviteri/r1-chat/internal/backend"
)

// LiveIndex marks a block created locally for a message that has not been
// re-fetched from the server, so its log position is not yet known.
const LiveIndex = -1

// Labels prefix each half of a pair.
type Labels struct {
	User      string
	Assistant string
}

func (l Labels) userPrefix() string      { return l.User + ": " }
func (l Labels) assistantPrefix() string { return l.Assistant + ": " }

// AssistantPrefix is written before the first fragment of a reply.
func (l Labels) AssistantPrefix() string { return l.assistantPrefix() }

// Block is a rendered message pair.
type Block struct {
	Index     int
	User      *Region
	Assistant *Region
}

// Live reports whether the block has no server index yet.
func (b *Block) Live() bool {
	return b.Index == LiveIndex
}

// Text returns the block's plain text, as copied to the clipboard.
func (b *Block) Text() string {
	parts := make([]string, 0, 2)
	for _, r := range []*Region{b.User, b.Assistant} {
		if t := strings.TrimSpace(Display(r.Raw())); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Typeset re-typesets both halves of the block.
func (b *Block) Typeset() {
	b.User.Typeset()
	b.Assistant.Typeset()
}

// Node is one entry of a surface: either a block or a notice line.
type Node struct {
	Block  *Block
	Notice string
}

// Surface is the display container for one conversation.
type Surface struct {
	ID string

	set     *Set
	nodes   []Node
	blocks  []*Block
	cursor  int
	hidden  bool
	width   int
	version uint64
}

func (s *Surface) typesetter() Typesetter {
	if s.set == nil {
		return nil
	}
	return s.set.ts
}

// touch records a content mutation. Views scroll to the bottom when the
// version of the visible surface changes.
func (s *Surface) touch() {
	s.version++
}

// Version increases with every content mutation.
func (s *Surface) Version() uint64 {
	return s.version
}

// Hidden reports whether another surface is the visible one.
func (s *Surface) Hidden() bool {
	return s.hidden
}

// Nodes returns the surface's entries in display order.
func (s *Surface) Nodes() []Node {
	return s.nodes
}

// Blocks returns the pair blocks in display order.
func (s *Surface) Blocks() []*Block {
	return s.blocks
}

func (s *Surface) labels() Labels {
	if s.set == nil {
		return Labels{User: "You", Assistant: "R1"}
	}
	return s.set.labels
}

// Clear removes all content.
func (s *Surface) Clear() {
	s.nodes = nil
	s.blocks = nil
	s.cursor = -1
	s.touch()
}

// Rebuild replaces the surface's content with the pairs of msgs. Each block is
// typeset once after it is populated.
func (s *Surface) Rebuild(msgs []backend.Message) {
	s.RebuildKeeping(msgs, nil)
}

// RebuildKeeping is Rebuild for a conversation whose reply is still streaming
// into live. The block owning live survives the rebuild and is placed last; a
// trailing pair in msgs for the same user text is the server's copy of it and
// is not drawn twice.
func (s *Surface) RebuildKeeping(msgs []backend.Message, live *Region) {
	var kept *Block
	for _, b := range s.blocks {
		if live != nil && b.Assistant == live {
			kept = b
		}
	}

	s.nodes = nil
	s.blocks = nil
	labels := s.labels()

	pairs := GroupPairs(msgs)
	if kept != nil && len(pairs) > 0 {
		last := pairs[len(pairs)-1]
		if last.HasUser && labels.userPrefix()+last.User == kept.User.Raw() {
			pairs = pairs[:len(pairs)-1]
		}
	}

	for _, p := range pairs {
		b := &Block{Index: p.Index, User: newRegion(s, ""), Assistant: newRegion(s, "")}
		if p.HasUser {
			b.User.raw.WriteString(labels.userPrefix() + p.User)
		}
		if p.HasAssistant {
			b.Assistant.raw.WriteString(labels.assistantPrefix() + p.Assistant)
		}
		s.addBlock(b)
		b.Typeset()
	}
	if kept != nil {
		s.addBlock(kept)
	}
	s.cursor = len(s.blocks) - 1
	s.touch()
}

// AddLiveBlock appends a block showing userText. Its assistant region is
// empty and is meant to be bound to the reply stream.
func (s *Surface) AddLiveBlock(userText string) *Block {
	b := &Block{
		Index:     LiveIndex,
		User:      newRegion(s, s.labels().userPrefix()+userText),
		Assistant: newRegion(s, ""),
	}
	s.addBlock(b)
	s.cursor = len(s.blocks) - 1
	s.touch()
	return b
}

func (s *Surface) addBlock(b *Block) {
	s.blocks = append(s.blocks, b)
	s.nodes = append(s.nodes, Node{Block: b})
}

// AppendNotice adds a standalone marker line, e.g. when a stream is stopped.
func (s *Surface) AppendNotice(text string) {
	s.nodes = append(s.nodes, Node{Notice: text})
	s.touch()
}

// Selected returns the block under the cursor.
func (s *Surface) Selected() (*Block, bool) {
	if s.cursor < 0 || s.cursor >= len(s.blocks) {
		return nil, false
	}
	return s.blocks[s.cursor], true
}

// MoveCursor moves the block cursor by delta, clamped to the blocks.
func (s *Surface) MoveCursor(delta int) {
	if len(s.blocks) == 0 {
		s.cursor = -1
		return
	}
	c := s.cursor + delta
	if c < 0 {
		c = 0
	}
	if c >= len(s.blocks) {
		c = len(s.blocks) - 1
	}
	s.cursor = c
}

// Cursor returns the position of the selected block, or -1.
func (s *Surface) Cursor() int {
	return s.cursor
}

// SetWidth changes the wrap width and re-renders typeset regions.
func (s *Surface) SetWidth(w int) {
	if w == s.width {
		return
	}
	s.width = w
	for _, b := range s.blocks {
		b.User.retypeset()
		b.Assistant.retypeset()
	}
}
