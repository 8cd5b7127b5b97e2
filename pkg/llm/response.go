package llm

// StreamChunk is one increment of a streamed reply.
type StreamChunk struct {
	// Model that generated the chunk, when the provider reports it
	Model string `json:"model,omitempty"`

	// Content is the text fragment carried by this chunk. It may be empty.
	Content string `json:"content"`

	// Done is set on the final chunk.
	Done bool `json:"done"`

	// Stop reason (only present on final chunk)
	StopReason string `json:"stop_reason,omitempty"`

	// Usage metrics (typically only present on final chunk)
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}
