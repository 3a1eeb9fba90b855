package surface

import "github.com/scottviteri/r1-chat/internal/backend"

// Pair is one display unit of a conversation log: a user message, its
// assistant reply, or both.
type Pair struct {
	// Index is the log position where the pair starts. The backend deletes
	// pairs by this index.
	Index        int
	User         string
	Assistant    string
	HasUser      bool
	HasAssistant bool
}

// GroupPairs scans a conversation log in order. A user message starts a pair
// and absorbs an immediately following assistant message; an assistant
// message with no user message before it forms a pair on its own. Messages
// with any other role are skipped.
func GroupPairs(msgs []backend.Message) []Pair {
	var pairs []Pair
	for i := 0; i < len(msgs); {
		switch msgs[i].Role {
		case backend.RoleUser:
			p := Pair{Index: i, User: msgs[i].Content, HasUser: true}
			if i+1 < len(msgs) && msgs[i+1].Role == backend.RoleAssistant {
				p.Assistant = msgs[i+1].Content
				p.HasAssistant = true
				i += 2
			} else {
				i++
			}
			pairs = append(pairs, p)
		case backend.RoleAssistant:
			pairs = append(pairs, Pair{Index: i, Assistant: msgs[i].Content, HasAssistant: true})
			i++
		default:
			i++
		}
	}
	return pairs
}
