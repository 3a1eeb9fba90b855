// Package stream reconciles server push streams with the conversation that
// requested them. A Controller owns at most one live binding per conversation
// and routes each inbound fragment to the region that binding was opened for.
//
// The Controller is not safe for concurrent use. It is owned by the UI event
// loop; subscriptions deliver events on channels which the loop drains and
// feeds back through Handle.
package stream

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/logger"
)

// StoppedMarker is shown in a conversation when the user stops its stream.
const StoppedMarker = "[User stopped the stream]"

// Region receives the output of one binding. It is fixed when the binding is
// opened.
type Region interface {
	Append(text string)
	// Typeset re-renders the region's accumulated text (markdown, maths).
	Typeset()
}

// Noticer receives out-of-band markers such as StoppedMarker.
type Noticer interface {
	AppendNotice(text string)
}

// Subscription is a live push stream.
type Subscription interface {
	Events() <-chan backend.Event
	Close()
}

// Dialer opens the push stream for a server-issued stream id.
type Dialer func(streamID string) Subscription

// Options control fragment interpretation.
type Options struct {
	TerminalToken string
	FailurePrefix string
	// TypesetEvery is the ordinary-fragment interval between re-typesets.
	TypesetEvery int
	// Label is written before the first ordinary fragment, e.g. "R1: ".
	Label string
}

// Binding associates a conversation with its open push stream.
type Binding struct {
	ID             uuid.UUID
	ConversationID string
	StreamID       string

	state     State
	reason    EndReason
	region    Region
	sub       Subscription
	fragments int
}

// State returns the binding's current state.
func (b *Binding) State() State { return b.state }

// Reason returns why the binding ended, or EndNone while streaming.
func (b *Binding) Reason() EndReason { return b.reason }

// Fragments returns how many ordinary fragments were appended.
func (b *Binding) Fragments() int { return b.fragments }

// Region returns the region fixed at Open.
func (b *Binding) Region() Region { return b.region }

// Subscription returns the push stream this binding reads from.
func (b *Binding) Subscription() Subscription { return b.sub }

// Outcome describes the effect of one inbound event.
type Outcome struct {
	// Binding is the binding the event was applied to; nil when Stale.
	Binding *Binding
	// Stale is set when the event belongs to a binding that is no longer live.
	// Such events are dropped without touching any region.
	Stale bool
	// Appended is set when text was written to the region.
	Appended bool
	// Typeset is set when the region was re-typeset.
	Typeset bool
}

// Ended reports whether the event closed the binding.
func (o Outcome) Ended() bool {
	return o.Binding != nil && o.Binding.state.Terminal()
}

// Controller tracks stream bindings per conversation.
type Controller struct {
	opts     Options
	dial     Dialer
	bindings map[string]*Binding
	log      *slog.Logger
}

// NewController creates a controller that opens streams with dial.
func NewController(opts Options, dial Dialer) *Controller {
	if opts.TypesetEvery < 1 {
		opts.TypesetEvery = 1
	}
	return &Controller{
		opts:     opts,
		dial:     dial,
		bindings: make(map[string]*Binding),
		log:      logger.ComponentLogger("Stream"),
	}
}

// Open binds streamID to region for conversationID. Any existing binding for
// the conversation is closed first and returned as superseded; the new
// subscription is dialed only after that close.
func (c *Controller) Open(conversationID, streamID string, region Region) (b *Binding, superseded *Binding) {
	if prev := c.bindings[conversationID]; prev != nil {
		c.end(prev, Cancelled, EndSuperseded)
		superseded = prev
		c.log.Info("binding superseded", "conversationID", conversationID,
			"streamID", prev.StreamID, "fragments", prev.fragments)
	}

	b = &Binding{
		ID:             uuid.New(),
		ConversationID: conversationID,
		StreamID:       streamID,
		state:          Streaming,
		region:         region,
	}
	c.bindings[conversationID] = b
	b.sub = c.dial(streamID)

	c.log.Info("binding opened", "conversationID", conversationID, "streamID", streamID, "bindingID", b.ID)
	return b, superseded
}

// Handle applies one event delivered for the binding identified by bindingID.
func (c *Controller) Handle(conversationID string, bindingID uuid.UUID, ev backend.Event) Outcome {
	b := c.bindings[conversationID]
	if b == nil || b.ID != bindingID || b.state != Streaming {
		c.log.Debug("dropping stale event", "conversationID", conversationID, "bindingID", bindingID)
		return Outcome{Stale: true}
	}

	if ev.Err != nil {
		// Transport failures are logged only; no text reaches the region.
		c.log.Warn("stream transport error", "conversationID", conversationID,
			"streamID", b.StreamID, "error", ev.Err)
		c.end(b, Failed, EndTransport)
		return Outcome{Binding: b}
	}

	switch {
	case ev.Data == c.opts.TerminalToken:
		c.end(b, Completed, EndTerminalToken)
		b.region.Typeset()
		c.log.Info("stream completed", "conversationID", conversationID,
			"streamID", b.StreamID, "fragments", b.fragments)
		return Outcome{Binding: b, Typeset: true}

	case strings.HasPrefix(ev.Data, c.opts.FailurePrefix):
		b.region.Append("\n" + ev.Data + "\n")
		c.end(b, Failed, EndServerFailure)
		c.log.Warn("stream failed", "conversationID", conversationID,
			"streamID", b.StreamID, "message", ev.Data)
		return Outcome{Binding: b, Appended: true}
	}

	b.fragments++
	if b.fragments == 1 {
		b.region.Append(c.opts.Label)
	}
	b.region.Append(ev.Data)

	out := Outcome{Binding: b, Appended: true}
	if b.fragments%c.opts.TypesetEvery == 0 {
		b.region.Typeset()
		out.Typeset = true
	}
	return out
}

// Cancel stops the conversation's stream at the user's request and writes
// StoppedMarker to notices. It reports the cancelled binding, or false when
// there was nothing to cancel, in which case notices is untouched.
func (c *Controller) Cancel(conversationID string, notices Noticer) (*Binding, bool) {
	b := c.bindings[conversationID]
	if b == nil {
		return nil, false
	}
	c.end(b, Cancelled, EndUser)
	if notices != nil {
		notices.AppendNotice(StoppedMarker)
	}
	c.log.Info("stream stopped by user", "conversationID", conversationID,
		"streamID", b.StreamID, "fragments", b.fragments)
	return b, true
}

// Drop closes a conversation's binding without any visible marker, e.g. when
// the conversation is deleted.
func (c *Controller) Drop(conversationID string) (*Binding, bool) {
	b := c.bindings[conversationID]
	if b == nil {
		return nil, false
	}
	c.end(b, Cancelled, EndDropped)
	return b, true
}

// CloseAll closes every binding and returns them.
func (c *Controller) CloseAll() []*Binding {
	var closed []*Binding
	for _, b := range c.bindings {
		c.end(b, Cancelled, EndShutdown)
		closed = append(closed, b)
	}
	return closed
}

// State returns the conversation's state: Streaming while a binding is live,
// Idle otherwise.
func (c *Controller) State(conversationID string) State {
	if b := c.bindings[conversationID]; b != nil {
		return b.state
	}
	return Idle
}

// Binding returns the live binding for a conversation, if any.
func (c *Controller) Binding(conversationID string) (*Binding, bool) {
	b, ok := c.bindings[conversationID]
	return b, ok
}

// Active returns the number of live bindings.
func (c *Controller) Active() int {
	return len(c.bindings)
}

// end closes b's subscription, records the terminal state and removes it.
func (c *Controller) end(b *Binding, state State, reason EndReason) {
	if b.sub != nil {
		b.sub.Close()
	}
	b.state = state
	b.reason = reason
	if cur := c.bindings[b.ConversationID]; cur == b {
		delete(c.bindings, b.ConversationID)
	}
}
