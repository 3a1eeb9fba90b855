// Package ui provides the user interface components for the r1-chat TUI.
//
// # Overview
//
// The ui package draws what the rest of the program describes. It holds no
// conversation state of its own: the sidebar renders the registry's list and
// highlight, the chat panel renders the visible surface, and the app package
// decides what either of them shows.
//
// # Layout System
//
// The layout is organized as follows:
//
//	┌─────────────────────────────────────────────────────┐
//	│ Header (1 line)                                     │
//	├─────────────────┬───────────────────────────────────┤
//	│                 │                                   │
//	│   Sidebar       │         Chat Panel                │
//	│   (1/4 width)   │         (3/4 width)               │
//	│                 │                                   │
//	├─────────────────┴───────────────────────────────────┤
//	│ Footer (1 line)                                     │
//	└─────────────────────────────────────────────────────┘
//
// When the sidebar is hidden (ctrl+b) the chat panel takes the full width.
//
// # Components
//
// ViewContext: Singleton that manages centralized layout calculations.
//
// Header: Application title, the active conversation and the sampling values
// used for the next send.
//
// Footer: Context-aware keyboard shortcuts and short-lived flash messages.
//
// Sidebar: Conversation ids in server order. The highlighted row is the
// selected conversation; the cursor row is where enter will select.
//
// Chat: Viewport over the visible surface plus a textarea for input.
//
// Modal: Popup dialogs:
//   - ConfirmState: destructive actions (delete conversation, delete pair)
//   - AlertState: blocking alerts for user input errors
//   - SettingsState: huh form for the sampling parameters
//
// # Focus System
//
// Tab toggles between the sidebar and the chat panel. The 'q' key only quits
// when the sidebar is focused so it can be typed in a message.
package ui
