package port

import "context"

// Message is one entry of a chat-style completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	Model       string // empty = provider default
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// AIProvider abstracts the language-model backend.
// Implementations can target OpenAI-compatible APIs, Ollama or Gemini.
type AIProvider interface {
	// ModelName returns the default model identifier.
	ModelName() string

	// Complete sends the request and returns the generated text.
	// credential overrides the provider's configured key when non-empty.
	Complete(ctx context.Context, req CompletionRequest, credential string) (string, error)
}
