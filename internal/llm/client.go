// Package llm wraps the Gemini API behind a small Client interface the
// agents program against. It supports plain text completions and structured
// JSON completions decoded into caller-supplied types, with bounded retries
// for transient failures.
package llm

import "context"

// Message is one prior conversation turn passed as model context.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request describes a single completion call.
type Request struct {
	// SystemPrompt sets the model's instructions for this call.
	SystemPrompt string
	// Messages is the conversation so far, oldest first. The last entry is
	// the turn the model responds to.
	Messages []Message
	// Temperature overrides the client default when >= 0; pass a negative
	// value to use the default.
	Temperature float64
	// MaxTokens caps the completion length; 0 means the client default.
	MaxTokens int
	// JSONResponse asks the model to emit a bare JSON document instead of
	// prose. Set by GenerateStructured.
	JSONResponse bool
}

// Client generates model completions. Structured output is layered on top
// by GenerateStructured, so implementations (and test fakes) only provide
// plain text completion.
type Client interface {
	// Invoke returns the model's text reply.
	Invoke(ctx context.Context, req Request) (string, error)
}
