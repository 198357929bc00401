// Package llm hides the chat-completion providers behind one Client.
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Response carries the raw generated text. Annotation tags are still in
// Content; callers strip them before anything reaches the user.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client generates the assistant reply for a prepared message list:
// context fragments first, then the conversation, newest message last.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
