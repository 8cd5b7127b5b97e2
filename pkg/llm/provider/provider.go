// Package provider streams chat completions from upstream language model
// APIs behind a single interface.
package provider

import (
	"context"

	"github.com/papercomputeco/chatter/pkg/llm"
)

// Provider streams a chat completion from one upstream API.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "ollama", "anthropic")
	Name() string

	// Model returns the model requests are sent to when the request leaves
	// it empty.
	Model() string

	// Stream sends req and calls onChunk for every chunk in order. The last
	// call carries Done. Stream stops early and returns the error when
	// onChunk fails or ctx ends.
	Stream(ctx context.Context, req *llm.ChatRequest, onChunk func(*llm.StreamChunk) error) error
}
