package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/scottviteri/r1-chat/internal/stream"
)

// listenForStream waits for the next event of b's subscription. The handler
// re-issues the listener while the binding is still streaming, so exactly one
// read is outstanding per live binding.
func listenForStream(b *stream.Binding) tea.Cmd {
	sub := b.Subscription()
	if sub == nil {
		return nil
	}
	ch := sub.Events()
	if ch == nil {
		return nil
	}

	conversationID, bindingID := b.ConversationID, b.ID
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return StreamClosedMsg{ConversationID: conversationID, BindingID: bindingID}
		}
		return StreamEventMsg{ConversationID: conversationID, BindingID: bindingID, Event: ev}
	}
}
