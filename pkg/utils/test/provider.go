package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/chatter/pkg/llm"
)

// MockProvider is a test provider that replays scripted chunks and records
// the requests it receives.
type MockProvider struct {
	mu sync.Mutex

	// Chunks are sent in order, followed by a done chunk.
	Chunks []string

	// Err is returned after the chunks instead of the done chunk.
	Err error

	// Block makes Stream wait for ctx to end after sending the chunks.
	Block bool

	Requests []*llm.ChatRequest
}

// NewMockProvider creates a MockProvider that replies with chunks.
func NewMockProvider(chunks ...string) *MockProvider {
	return &MockProvider{Chunks: chunks}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Model() string {
	return "mock-model"
}

func (m *MockProvider) Stream(ctx context.Context, req *llm.ChatRequest, onChunk func(*llm.StreamChunk) error) error {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	chunks := append([]string(nil), m.Chunks...)
	streamErr, block := m.Err, m.Block
	m.mu.Unlock()

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(&llm.StreamChunk{Model: m.Model(), Content: c}); err != nil {
			return err
		}
	}

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if streamErr != nil {
		return streamErr
	}

	return onChunk(&llm.StreamChunk{
		Model: m.Model(),
		Done:  true,
		Usage: &llm.Usage{PromptTokens: 1, CompletionTokens: len(chunks), TotalTokens: 1 + len(chunks)},
	})
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}
