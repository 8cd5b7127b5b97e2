package llm

// ChatRequest is a provider-agnostic streaming chat completion request.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o-mini", "deepseek-chat", "llama3")
	Model string `json:"model"`

	// Conversation messages, oldest first
	Messages []Message `json:"messages"`

	// System prompt. Providers that take it as a message prepend it.
	System string `json:"system,omitempty"`

	// Generation parameters
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}
