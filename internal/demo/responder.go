package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/scottviteri/r1-chat/internal/backend"
)

// Params are the sampling parameters submitted with a message.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Responder produces the fragments of an assistant reply. history includes
// the user message that triggered the reply. Returning an error makes the
// stream end with a failure-prefixed fragment.
type Responder interface {
	Reply(ctx context.Context, history []backend.Message, params Params) ([]string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, history []backend.Message, params Params) ([]string, error)

func (f ResponderFunc) Reply(ctx context.Context, history []backend.Message, params Params) ([]string, error) {
	return f(ctx, history, params)
}

// Scripted returns the same fragments for every message.
func Scripted(fragments ...string) Responder {
	return ResponderFunc(func(context.Context, []backend.Message, Params) ([]string, error) {
		out := make([]string, len(fragments))
		copy(out, fragments)
		return out, nil
	})
}

// Failing makes every stream fail with err.
func Failing(err error) Responder {
	return ResponderFunc(func(context.Context, []backend.Message, Params) ([]string, error) {
		return nil, err
	})
}

// Reasoner imitates a reasoning model: a short <think> block that restates
// the question, then an answer. Output is split on word boundaries so each
// fragment looks like a model token, and is capped at params.MaxTokens
// fragments.
type Reasoner struct{}

func (Reasoner) Reply(_ context.Context, history []backend.Message, params Params) ([]string, error) {
	question := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == backend.RoleUser {
			question = strings.TrimSpace(history[i].Content)
			break
		}
	}
	if question == "" {
		question = "(nothing)"
	}

	text := fmt.Sprintf("<think>\nThe user asked: %s\nThere are %d earlier messages in this conversation.\n</think>\n"+
		"You asked **%s**. This reply comes from the built-in demo server "+
		"(temperature %.2f, top_p %.2f), so it can only echo. "+
		"Here is some inline math for the typesetter: $e^{i\\pi} + 1 = 0$.",
		question, len(history)-1, question, params.Temperature, params.TopP)

	fragments := tokenize(text)
	if params.MaxTokens > 0 && len(fragments) > params.MaxTokens {
		fragments = fragments[:params.MaxTokens]
	}
	return fragments, nil
}

// tokenize splits s into fragments that each carry their leading whitespace,
// so concatenating them reproduces s exactly.
func tokenize(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if (s[i] == ' ' || s[i] == '\n') && s[i-1] != ' ' && s[i-1] != '\n' {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
