package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/scottviteri/r1-chat/internal/errors"
	"github.com/scottviteri/r1-chat/internal/logger"
)

// Event is one item delivered by a Subscription: either a data fragment or a
// transport-level failure. A failure is always the last event.
type Event struct {
	Data string
	Err  error
}

// Subscription is a live push stream bound to one stream id. Events are
// delivered in the order the server sent them. The events channel is closed
// once the stream ends or Close is called.
type Subscription struct {
	streamID string
	events   chan Event
	cancel   context.CancelFunc
	once     sync.Once
	done     chan struct{}
}

// eventBuffer lets the reader run slightly ahead of the UI loop without
// reordering anything.
const eventBuffer = 64

// Subscribe opens the push stream for streamID and returns immediately; the
// connection is established in the background. Closing the parent context or
// calling Close tears the connection down.
func (c *Client) Subscribe(ctx context.Context, streamID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		streamID: streamID,
		events:   make(chan Event, eventBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx, c)
	return s
}

// StreamID returns the server-issued id this subscription is bound to.
func (s *Subscription) StreamID() string {
	return s.streamID
}

// Events returns the channel fragments are delivered on.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close stops the subscription. It is safe to call more than once and from
// any goroutine. Events already buffered may still be read.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Done is closed when the background reader has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run(ctx context.Context, c *Client) {
	defer close(s.done)
	defer close(s.events)
	defer s.cancel()

	log := logger.ComponentLogger("Subscription").With("streamID", s.streamID)

	err := s.read(ctx, c)
	if ctx.Err() != nil {
		// Closed by the consumer; nothing left to report.
		log.Debug("subscription closed")
		return
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	log.Warn("stream transport ended", "error", err)
	s.deliver(ctx, Event{Err: errors.StreamFailed(s.streamID, err)})
}

// read returns nil when the server closed the body normally.
func (s *Subscription) read(ctx context.Context, c *Client) error {
	endpoint := c.baseURL + PathStream + "?stream_id=" + url.QueryEscape(s.streamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return readEvents(resp.Body, func(data string) bool {
		return s.deliver(ctx, Event{Data: data})
	})
}

// deliver hands ev to the consumer unless the subscription is closed first.
func (s *Subscription) deliver(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
