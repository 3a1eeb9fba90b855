package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/scottviteri/r1-chat/internal/keys"
)

// ModalState is a discriminated union interface for modal-specific state.
// Each modal type implements this interface with its own state struct,
// ensuring type-safe access to modal-specific fields.
type ModalState interface {
	modalState() // marker method to restrict implementations
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}

// ModalWithPreferredWidth is an optional interface that modals can implement
// to specify a custom width. If not implemented, the default ModalWidth is used.
type ModalWithPreferredWidth interface {
	ModalState
	PreferredWidth() int
}

// Modal represents a popup dialog with type-safe state management.
// The State field is nil when no modal is visible.
type Modal struct {
	State ModalState
	error string
}

// NewModal creates a new modal
func NewModal() *Modal {
	return &Modal{}
}

// Show displays a modal with the given state
func (m *Modal) Show(state ModalState) {
	m.State = state
	m.error = ""
}

// Hide hides the modal
func (m *Modal) Hide() {
	m.State = nil
	m.error = ""
}

// IsVisible returns whether the modal is visible
func (m *Modal) IsVisible() bool {
	return m.State != nil
}

// SetError sets an error message
func (m *Modal) SetError(err string) {
	m.error = err
}

// GetError returns the current error message
func (m *Modal) GetError() string {
	return m.error
}

// Update handles messages by delegating to the current state
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.State, cmd = m.State.Update(msg)
	return m, cmd
}

// View renders the modal centered on the screen
func (m *Modal) View(screenWidth, screenHeight int) string {
	if m.State == nil {
		return ""
	}

	content := m.State.Render()
	if m.error != "" {
		content += "\n" + StatusErrorStyle.Render(m.error)
	}

	style := ModalStyle
	if pw, ok := m.State.(ModalWithPreferredWidth); ok {
		style = style.Width(pw.PreferredWidth())
	}

	return lipgloss.Place(
		screenWidth, screenHeight,
		lipgloss.Center, lipgloss.Center,
		style.Render(content),
	)
}

// =============================================================================
// ConfirmState - State for destructive-action confirmation
// =============================================================================

// ConfirmAction identifies what a ConfirmState confirms
type ConfirmAction int

const (
	ConfirmDeleteConversation ConfirmAction = iota
	ConfirmDeletePair
)

// Confirm option indices. Cancel is first so enter on an untouched dialog is harmless.
const (
	confirmCancel = iota
	confirmProceed
)

type ConfirmState struct {
	Action         ConfirmAction
	ConversationID string
	PairIndex      int
	Subject        string
	Message        string
	Options        []string
	SelectedIndex  int
}

func (*ConfirmState) modalState() {}

func (s *ConfirmState) Title() string {
	if s.Action == ConfirmDeletePair {
		return "Delete Pair?"
	}
	return "Delete Conversation?"
}

func (s *ConfirmState) Help() string {
	return "up/down to select, Enter to confirm, Esc to cancel"
}

func (s *ConfirmState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	subject := lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true).
		MarginBottom(1).
		Render(s.Subject)

	message := lipgloss.NewStyle().
		Foreground(ColorText).
		MarginBottom(1).
		Render(s.Message)

	var optionList string
	for i, opt := range s.Options {
		style := SidebarItemStyle
		prefix := "  "
		if i == s.SelectedIndex {
			style = SidebarSelectedStyle
			prefix = "> "
		}
		optionList += style.Render(prefix+opt) + "\n"
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, subject, message, optionList, help)
}

func (s *ConfirmState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Up, "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case keys.Down, "j":
			if s.SelectedIndex < len(s.Options)-1 {
				s.SelectedIndex++
			}
		case "y":
			s.SelectedIndex = confirmProceed
		case "n":
			s.SelectedIndex = confirmCancel
		}
	}
	return s, nil
}

// Confirmed reports whether the proceed option is selected
func (s *ConfirmState) Confirmed() bool {
	return s.SelectedIndex == confirmProceed
}

// NewConfirmDeleteConversation asks before deleting a whole conversation
func NewConfirmDeleteConversation(conversationID string) *ConfirmState {
	return &ConfirmState{
		Action:         ConfirmDeleteConversation,
		ConversationID: conversationID,
		PairIndex:      -1,
		Subject:        conversationID,
		Message:        "This deletes the conversation and its history on the server.",
		Options:        []string{"Cancel", "Delete conversation"},
	}
}

// NewConfirmDeletePair asks before deleting the pair starting at pairIndex
func NewConfirmDeletePair(conversationID string, pairIndex int, preview string) *ConfirmState {
	return &ConfirmState{
		Action:         ConfirmDeletePair,
		ConversationID: conversationID,
		PairIndex:      pairIndex,
		Subject:        truncatePreview(preview, ModalWidth-6),
		Message:        "This removes the message and its reply from the history.",
		Options:        []string{"Cancel", "Delete pair"},
	}
}

func truncatePreview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// =============================================================================
// AlertState - Blocking message with a single dismiss action
// =============================================================================

type AlertState struct {
	Heading string
	Message string
}

func (*AlertState) modalState() {}

func (s *AlertState) Title() string { return s.Heading }

func (s *AlertState) Help() string { return "Enter or Esc to dismiss" }

func (s *AlertState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	message := lipgloss.NewStyle().
		Foreground(ColorText).
		Width(ModalWidth - 6).
		Render(s.Message)
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, message, help)
}

func (s *AlertState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// NewAlertState creates an alert with the given heading and message
func NewAlertState(heading, message string) *AlertState {
	if heading == "" {
		heading = "Notice"
	}
	return &AlertState{Heading: heading, Message: message}
}

// =============================================================================
// SettingsState - Sampling parameters and display options
// =============================================================================

// Settings is the result of a submitted SettingsState
type Settings struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	Markdown      bool
	Notifications bool
}

const (
	optionMarkdown      = "markdown"
	optionNotifications = "notifications"
)

type SettingsState struct {
	// Bound form values
	temperature    string
	topP           string
	maxTokens      string
	generalOptions []string

	form *huh.Form

	// Size tracking
	availableWidth int
}

func (*SettingsState) modalState() {}

func (s *SettingsState) PreferredWidth() int { return ModalWidthWide }

// SetSize updates the available width for rendering content.
func (s *SettingsState) SetSize(width, height int) {
	s.availableWidth = width
	s.form.WithWidth(s.contentWidth())
}

func (s *SettingsState) contentWidth() int {
	if s.availableWidth > 0 && s.availableWidth < ModalWidthWide {
		return s.availableWidth - 10
	}
	return ModalWidthWide - 10
}

func (s *SettingsState) Title() string { return "Settings" }

func (s *SettingsState) Help() string {
	return "Tab: next field  Enter: save  Esc: cancel"
}

func (s *SettingsState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *SettingsState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	return s, cmd
}

// Values parses the form. Invalid input is reported as an error suitable for
// Modal.SetError.
func (s *SettingsState) Values() (Settings, error) {
	out := Settings{
		Markdown:      slices.Contains(s.generalOptions, optionMarkdown),
		Notifications: slices.Contains(s.generalOptions, optionNotifications),
	}
	var err error
	if out.Temperature, err = parseTemperature(s.temperature); err != nil {
		return Settings{}, err
	}
	if out.TopP, err = parseTopP(s.topP); err != nil {
		return Settings{}, err
	}
	if out.MaxTokens, err = parseMaxTokens(s.maxTokens); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func parseTemperature(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 || f > 2 {
		return 0, fmt.Errorf("temperature must be a number between 0 and 2")
	}
	return f, nil
}

func parseTopP(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 || f > 1 {
		return 0, fmt.Errorf("top-p must be greater than 0 and at most 1")
	}
	return f, nil
}

func parseMaxTokens(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("max tokens must be a positive whole number")
	}
	return n, nil
}

// NewSettingsState creates a settings form pre-filled with current.
func NewSettingsState(current Settings) *SettingsState {
	s := &SettingsState{
		temperature:    strconv.FormatFloat(current.Temperature, 'g', -1, 64),
		topP:           strconv.FormatFloat(current.TopP, 'g', -1, 64),
		maxTokens:      strconv.Itoa(current.MaxTokens),
		availableWidth: ModalWidthWide,
	}

	generalOpts := []huh.Option[string]{
		huh.NewOption("Typeset markdown and maths", optionMarkdown).
			Selected(current.Markdown),
		huh.NewOption("Desktop notifications", optionNotifications).
			Selected(current.Notifications),
	}
	if current.Markdown {
		s.generalOptions = append(s.generalOptions, optionMarkdown)
	}
	if current.Notifications {
		s.generalOptions = append(s.generalOptions, optionNotifications)
	}

	samplingGroup := huh.NewGroup(
		huh.NewInput().
			Title("Temperature").
			Description("0 to 2").
			CharLimit(ModalInputCharLimit).
			Validate(func(v string) error { _, err := parseTemperature(v); return err }).
			Value(&s.temperature),
		huh.NewInput().
			Title("Top-p").
			Description("Greater than 0, at most 1").
			CharLimit(ModalInputCharLimit).
			Validate(func(v string) error { _, err := parseTopP(v); return err }).
			Value(&s.topP),
		huh.NewInput().
			Title("Max tokens").
			CharLimit(ModalInputCharLimit).
			Validate(func(v string) error { _, err := parseMaxTokens(v); return err }).
			Value(&s.maxTokens),
		huh.NewMultiSelect[string]().
			Title("Options").
			Options(generalOpts...).
			Height(len(generalOpts)).
			Value(&s.generalOptions),
	)

	s.form = huh.NewForm(samplingGroup).
		WithTheme(ModalTheme()).
		WithShowHelp(false).
		WithWidth(s.contentWidth()).
		WithLayout(huh.LayoutStack)

	initHuhForm(s.form)
	return s
}

// =============================================================================
// huh integration
// =============================================================================

// initHuhForm initializes a huh form eagerly so it renders correctly
// immediately. Call this in every modal constructor after creating the form.
func initHuhForm(form *huh.Form) {
	form.Init()
}

// huhFormUpdate is the common Update logic for huh-based modals.
// It intercepts Enter and Escape (handled by the app-layer modal handlers)
// and delegates everything else to the huh form.
func huhFormUpdate(form *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Enter, keys.Escape:
			return form, nil
		}
	}

	m, cmd := form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		form = f
	}
	return form, cmd
}

// ModalTheme returns a huh theme that matches the modal color palette.
func ModalTheme() huh.Theme {
	return huh.ThemeFunc(func(isDark bool) *huh.Styles {
		t := huh.ThemeBase(isDark)

		// Focused field styles - active field with left border indicator
		t.Focused.Base = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorPrimary)
		t.Focused.Card = t.Focused.Base
		t.Focused.Title = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
		t.Focused.Description = lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true)
		t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(ColorWarning).SetString(" *")
		t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(ColorWarning)

		t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(ColorPrimary).SetString("> ")
		t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
		t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(ColorSecondary).SetString("[x] ")
		t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)
		t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(ColorTextMuted).SetString("[ ] ")

		t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ColorPrimary)
		t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(ColorTextMuted)
		t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorPrimary)
		t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(ColorText)

		// Blurred field styles - inactive field with hidden border
		t.Blurred = t.Focused
		t.Blurred.Base = lipgloss.NewStyle().
			PaddingLeft(2)
		t.Blurred.Card = t.Blurred.Base
		t.Blurred.NextIndicator = lipgloss.NewStyle()
		t.Blurred.PrevIndicator = lipgloss.NewStyle()

		t.Group.Title = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
		t.Group.Description = lipgloss.NewStyle().Foreground(ColorTextMuted)

		t.FieldSeparator = lipgloss.NewStyle().SetString("\n")
		t.Help = help.New().Styles

		return t
	})
}
