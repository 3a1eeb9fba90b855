// Package app is the session controller: it owns the conversation registry,
// the render surfaces and the stream controller, and translates user intents
// into backend requests. It is the Bubble Tea model for the TUI.
package app

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/config"
	"github.com/scottviteri/r1-chat/internal/logger"
	"github.com/scottviteri/r1-chat/internal/registry"
	"github.com/scottviteri/r1-chat/internal/stream"
	"github.com/scottviteri/r1-chat/internal/surface"
	"github.com/scottviteri/r1-chat/internal/typeset"
	"github.com/scottviteri/r1-chat/internal/ui"
)

// Focus represents which panel is focused
type Focus int

const (
	FocusSidebar Focus = iota
	FocusChat
)

// Backend is the request/response half of the server contract.
// *backend.Client implements it.
type Backend interface {
	ListConversations(ctx context.Context) ([]string, error)
	CreateConversation(ctx context.Context) (string, error)
	History(ctx context.Context, conversationID string) ([]backend.Message, error)
	Send(ctx context.Context, req backend.SendRequest) (string, error)
	DeleteConversation(ctx context.Context, conversationID string) (backend.Status, error)
	DeletePair(ctx context.Context, conversationID string, pairIndex int) (backend.Status, error)
	StopStream(ctx context.Context, streamID string) (backend.Status, error)
	DebugDump(ctx context.Context, conversationID string) (backend.DebugDump, error)
}

// Model is the main Bubble Tea model
type Model struct {
	cfg     *config.Config
	version string
	backend Backend

	// ctx scopes every request and push stream; cancelled on shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	registry *registry.Registry
	surfaces *surface.Set
	streams  *stream.Controller

	header  *ui.Header
	footer  *ui.Footer
	sidebar *ui.Sidebar
	chat    *ui.Chat
	modal   *ui.Modal

	width         int
	height        int
	focus         Focus
	sidebarHidden bool
	spinnerActive bool
	shutdown      bool

	copyText func(string) error
	notify   func(conversationID string) error
}

// Dialer opens a push stream. It receives the model's context so streams are
// torn down on shutdown.
type Dialer func(ctx context.Context, streamID string) stream.Subscription

// ClientDialer adapts a backend client's Subscribe to a Dialer.
func ClientDialer(c *backend.Client) Dialer {
	return func(ctx context.Context, streamID string) stream.Subscription {
		return c.Subscribe(ctx, streamID)
	}
}

// New creates a new app model
func New(cfg *config.Config, be Backend, dial Dialer, opts ...Option) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		cfg:      cfg,
		backend:  be,
		ctx:      ctx,
		cancel:   cancel,
		registry: registry.New(),
		header:   ui.NewHeader(),
		footer:   ui.NewFooter(),
		sidebar:  ui.NewSidebar(),
		chat:     ui.NewChat(),
		modal:    ui.NewModal(),
		focus:    FocusSidebar,
		copyText: defaultCopy,
		notify:   defaultNotify,
	}

	labels := surface.Labels{User: cfg.Stream.UserLabel, Assistant: cfg.Stream.AssistantLabel}
	m.surfaces = surface.NewSet(labels, nil)
	if cfg.GetUI().Markdown {
		m.surfaces.SetTypesetter(typeset.New(""))
	}

	m.streams = stream.NewController(stream.Options{
		TerminalToken: cfg.Stream.TerminalToken,
		FailurePrefix: cfg.Stream.FailurePrefix,
		TypesetEvery:  cfg.Stream.TypesetEvery,
		Label:         labels.AssistantPrefix(),
	}, func(streamID string) stream.Subscription {
		return dial(ctx, streamID)
	})

	for _, opt := range opts {
		opt(m)
	}

	m.sidebar.SetFocused(true)
	s := cfg.GetSampling()
	m.header.SetSampling(s.Temperature, s.TopP, s.MaxTokens)

	logger.ComponentLogger("App").Info("app initialized",
		"server", cfg.ServerURL, "version", m.version, "markdown", cfg.GetUI().Markdown)
	return m
}

// Init loads the conversation list.
func (m *Model) Init() tea.Cmd {
	return m.loadConversations("")
}

// Shutdown closes every stream binding and cancels outstanding requests.
// It is safe to call more than once.
func (m *Model) Shutdown() {
	if m.shutdown {
		return
	}
	m.shutdown = true
	closed := m.streams.CloseAll()
	m.cancel()
	logger.ComponentLogger("App").Info("shutdown", "closedBindings", len(closed))
}

// Selected returns the active conversation id, or "".
func (m *Model) Selected() string {
	return m.registry.Selected()
}

// Focus returns the focused panel
func (m *Model) Focus() Focus {
	return m.focus
}

// setFocus moves keyboard focus
func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.sidebar.SetFocused(f == FocusSidebar)
	m.chat.SetFocused(f == FocusChat)
}

// sync pushes model state into the view components after every update.
func (m *Model) sync() {
	selected := m.registry.Selected()

	m.sidebar.SetConversations(m.registry.Conversations(), m.registry.Highlights(), m.registry.Cursor())
	m.header.SetConversation(selected)

	if sf, ok := m.surfaces.Visible(); ok {
		m.chat.SetSurface(sf)
	} else {
		m.chat.SetSurface(nil)
	}
	streaming := selected != "" && m.streams.State(selected) == stream.Streaming
	m.chat.SetStreaming(streaming)
	m.chat.Refresh()

	m.footer.SetContext(selected != "", m.focus == FocusSidebar, streaming)
}
