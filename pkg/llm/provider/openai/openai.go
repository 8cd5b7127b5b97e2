// Package openai streams chat completions from OpenAI and from any endpoint
// that implements the OpenAI-compatible chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/sse"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "gpt-3.5-turbo"

	doneSentinel = "[DONE]"
)

// Config holds configuration for an OpenAI-compatible provider.
type Config struct {
	// BaseURL is the API root including the version segment.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Model defaults to DefaultModel if empty.
	Model string

	// HTTPClient defaults to a client without a timeout; streams are bounded
	// by the request context.
	HTTPClient *http.Client
}

// Provider implements provider.Provider for the chat completions API.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a Provider from cfg.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Provider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: client,
	}
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Model() string {
	return p.model
}

// Stream posts req to {baseURL}/chat/completions and relays the SSE reply.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest, onChunk func(*llm.StreamChunk) error) error {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaiMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(openaiRequest{
		Model:         model,
		Messages:      messages,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &llm.APIError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	final := &llm.StreamChunk{Model: model, Done: true}
	finished := false

	r := sse.NewReader(resp.Body)
	for {
		ev, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			break
		}

		if strings.TrimSpace(ev.Data) == doneSentinel {
			return onChunk(final)
		}

		chunk, err := ParseStreamChunk([]byte(ev.Data))
		if err != nil {
			return err
		}
		if chunk == nil {
			continue
		}

		if chunk.Model != "" {
			final.Model = chunk.Model
		}
		if chunk.Usage != nil {
			final.Usage = chunk.Usage
		}
		if chunk.StopReason != "" {
			final.StopReason = chunk.StopReason
			finished = true
		}
		if chunk.Content == "" {
			continue
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}

	// Some compatible servers close the stream after the finish reason
	// without sending the sentinel.
	if finished {
		return onChunk(final)
	}
	return llm.ErrIncompleteStream
}

// ParseStreamChunk converts one chat.completion.chunk payload. It returns
// (nil, nil) for payloads with nothing to relay and an error for error
// payloads.
func ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	var c openaiChunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("parsing stream chunk: %w", err)
	}

	if c.Error != nil {
		return nil, errors.New(c.Error.Message)
	}

	chunk := &llm.StreamChunk{Model: c.Model}
	if c.Usage != nil {
		chunk.Usage = &llm.Usage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
			TotalTokens:      c.Usage.TotalTokens,
		}
	}
	if len(c.Choices) > 0 {
		choice := c.Choices[0]
		chunk.Content = choice.Delta.Content
		if choice.FinishReason != nil {
			chunk.StopReason = *choice.FinishReason
		}
	}

	if chunk.Content == "" && chunk.StopReason == "" && chunk.Usage == nil {
		return nil, nil
	}
	return chunk, nil
}
