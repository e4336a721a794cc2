// Package llm provides chat-completion clients behind a single small
// interface, so callers never care which provider is configured.
package llm

import "context"

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a single text completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}
