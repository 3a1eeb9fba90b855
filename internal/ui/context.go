package ui

import (
	"sync"

	"github.com/scottviteri/r1-chat/internal/logger"
)

// ViewContext holds centralized layout calculations and provides debug logging.
// All size calculations should go through this to avoid duplication.
type ViewContext struct {
	// Terminal dimensions
	TerminalWidth  int
	TerminalHeight int

	// Calculated dimensions
	HeaderHeight  int
	FooterHeight  int
	ContentHeight int
	SidebarWidth  int
	ChatWidth     int

	// SidebarHidden gives the chat panel the full width
	SidebarHidden bool

	mu sync.Mutex
}

// Global view context instance
var ctx *ViewContext
var ctxOnce sync.Once

// GetViewContext returns the singleton ViewContext instance
func GetViewContext() *ViewContext {
	ctxOnce.Do(func() {
		ctx = &ViewContext{
			HeaderHeight: HeaderHeight,
			FooterHeight: FooterHeight,
		}
		logger.ComponentLogger("UI").Debug("ViewContext initialized")
	})
	return ctx
}

// Log writes a structured debug message tagged with the UI component.
func (v *ViewContext) Log(msg string, args ...any) {
	logger.ComponentLogger("UI").Debug(msg, args...)
}

// UpdateTerminalSize recalculates all dimensions when terminal size changes.
func (v *ViewContext) UpdateTerminalSize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Validate dimensions to prevent negative layout values
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}

	v.TerminalWidth = width
	v.TerminalHeight = height
	v.HeaderHeight = HeaderHeight
	v.FooterHeight = FooterHeight
	v.ContentHeight = height - v.HeaderHeight - v.FooterHeight
	v.layoutColumns()

	v.Log("Terminal size updated",
		"width", width,
		"height", height,
		"contentHeight", v.ContentHeight,
		"sidebarWidth", v.SidebarWidth,
		"chatWidth", v.ChatWidth,
	)
}

// SetSidebarHidden hides or shows the sidebar column.
func (v *ViewContext) SetSidebarHidden(hidden bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.SidebarHidden = hidden
	v.layoutColumns()
	v.Log("Sidebar visibility changed", "hidden", hidden, "chatWidth", v.ChatWidth)
}

// layoutColumns splits the terminal width between sidebar and chat. Callers hold mu.
func (v *ViewContext) layoutColumns() {
	if v.SidebarHidden {
		v.SidebarWidth = 0
		v.ChatWidth = v.TerminalWidth
		return
	}
	v.SidebarWidth = v.TerminalWidth / SidebarWidthRatio
	if v.SidebarWidth < MinSidebarWidth {
		v.SidebarWidth = MinSidebarWidth
	}
	v.ChatWidth = v.TerminalWidth - v.SidebarWidth
}

// InnerWidth returns the usable width inside a panel with borders
func (v *ViewContext) InnerWidth(panelWidth int) int {
	return panelWidth - BorderSize
}

// InnerHeight returns the usable height inside a panel with borders
func (v *ViewContext) InnerHeight(panelHeight int) int {
	return panelHeight - BorderSize
}
