package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

const headerTitle = " r1-chat"

// Header represents the top header bar
type Header struct {
	width          int
	conversationID string
	sampling       string
}

// NewHeader creates a new header
func NewHeader() *Header {
	return &Header{}
}

// SetWidth sets the header width
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetConversation sets the selected conversation id, or "" for none
func (h *Header) SetConversation(id string) {
	h.conversationID = id
}

// SetSampling shows the sampling values the next send will use
func (h *Header) SetSampling(temperature, topP float64, maxTokens int) {
	h.sampling = fmt.Sprintf("temp %.2g  top-p %.2g  max %d", temperature, topP, maxTokens)
}

// View renders the header
func (h *Header) View() string {
	var right []string
	if h.conversationID != "" {
		right = append(right, h.conversationID)
	}
	if h.sampling != "" {
		right = append(right, h.sampling)
	}
	rightText := ""
	if len(right) > 0 {
		rightText = strings.Join(right, "  ·  ") + " "
	}

	room := h.width - len(headerTitle) - 1
	if room < 0 {
		room = 0
	}
	rightText = ansi.Truncate(rightText, room, "…")

	paddingLen := h.width - len(headerTitle) - ansi.StringWidth(rightText)
	if paddingLen < 0 {
		paddingLen = 0
	}

	return h.renderGradient(headerTitle + strings.Repeat(" ", paddingLen) + rightText)
}

// parseHexColor parses a hex color string (e.g., "#7C3AED") into RGB components
func parseHexColor(hex string) (r, g, b int) {
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return
}

// renderGradient renders the content over a background fading from the
// primary color into the terminal background. The title is bold and the
// sampling values are muted.
func (h *Header) renderGradient(content string) string {
	if len(content) == 0 {
		return ""
	}

	startR, startG, startB := parseHexColor(hexPrimary)
	endR, endG, endB := parseHexColor(hexBg)

	textColor := lipgloss.Color(hexText)
	mutedColor := lipgloss.Color(hexTextMuted)

	samplingStart := -1
	if h.sampling != "" {
		samplingStart = strings.Index(content, h.sampling)
	}

	runes := []rune(content)
	width := len(runes)
	var result strings.Builder

	byteOffset := 0
	for i, r := range runes {
		t := float64(i) / float64(width)

		cr := int(float64(startR)*(1-t) + float64(endR)*t)
		cg := int(float64(startG)*(1-t) + float64(endG)*t)
		cb := int(float64(startB)*(1-t) + float64(endB)*t)

		bgColor := lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", cr, cg, cb))

		style := lipgloss.NewStyle().
			Background(bgColor).
			Bold(i < len(headerTitle))

		if samplingStart >= 0 && byteOffset >= samplingStart {
			style = style.Foreground(mutedColor)
		} else {
			style = style.Foreground(textColor)
		}

		result.WriteString(style.Render(string(r)))
		byteOffset += len(string(r))
	}

	return result.String()
}
