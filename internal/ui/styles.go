package ui

import "charm.land/lipgloss/v2"

// Hex values of the palette; the header gradient interpolates between them.
const (
	hexPrimary   = "#7C3AED"
	hexBg        = "#1F2937"
	hexSelected  = "#3B3363"
	hexText      = "#F9FAFB"
	hexTextMuted = "#B0B8C4"
)

// Color palette - Purple + Cyan/Teal theme
var (
	ColorPrimary     = lipgloss.Color(hexPrimary)   // Purple
	ColorSecondary   = lipgloss.Color("#06B6D4")    // Cyan
	ColorMuted       = lipgloss.Color("#6B7280")    // Gray
	ColorBorder      = lipgloss.Color("#374151")    // Dark gray
	ColorBorderFocus = lipgloss.Color(hexPrimary)   // Purple when focused
	ColorBg          = lipgloss.Color(hexBg)        // Dark background
	ColorBgSelected  = lipgloss.Color(hexSelected)  // Highlighted sidebar row
	ColorText        = lipgloss.Color(hexText)      // Light text
	ColorTextMuted   = lipgloss.Color(hexTextMuted) // Muted text
	ColorTextInverse = lipgloss.Color("#1F2937")    // Dark text for light backgrounds
	ColorUser        = lipgloss.Color("#A78BFA")    // Light purple for user messages
	ColorAssistant   = lipgloss.Color("#22D3EE")    // Bright cyan for assistant messages
	ColorWarning     = lipgloss.Color("#F59E0B")    // Amber for stop markers
	ColorError       = lipgloss.Color("#EF4444")    // Red for errors
	ColorSuccess     = lipgloss.Color("#10B981")    // Green for success
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)
)

// Footer styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)
)

// Sidebar styles
var (
	SidebarItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	// SidebarSelectedStyle marks the selected conversation
	SidebarSelectedStyle = lipgloss.NewStyle().
				Background(ColorBgSelected).
				Foreground(ColorText).
				Bold(true).
				Padding(0, 1)

	SidebarEmptyStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted).
				Italic(true)

	SidebarStreamingStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary)
)

// Chat styles
var (
	ChatUserStyle = lipgloss.NewStyle().
			Foreground(ColorUser)

	ChatAssistantStyle = lipgloss.NewStyle().
				Foreground(ColorAssistant)

	// ChatBlockStyle separates pair blocks with a left rule
	ChatBlockStyle = lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			PaddingLeft(1).
			MarginBottom(1)

	// ChatBlockSelectedStyle marks the block that copy and delete act on
	ChatBlockSelectedStyle = ChatBlockStyle.
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(ColorPrimary)

	ChatNoticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true).
			MarginBottom(1)

	ChatEmptyStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	ChatInputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ChatInputFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus).
				Padding(0, 1)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			Width(ModalWidth)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	ModalHelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			MarginTop(1)
)

// Status styles
var (
	StatusLoadingStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Italic(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)
)
