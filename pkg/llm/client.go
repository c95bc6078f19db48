package llm

import "context"

// Provider is the text-generation capability: submit a prompt, receive text.
// No structured-output guarantee is assumed; callers own parsing.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request carries a single completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}
