// Package llm wraps the text-generation capability the rest of the backend
// treats as opaque: given a prompt (or message history), it yields text.
package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
