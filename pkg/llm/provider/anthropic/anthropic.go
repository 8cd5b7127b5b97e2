// Package anthropic streams chat completions from Anthropic's Messages API.
package anthropic

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
	// DefaultBaseURL is the Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultMaxTokens is sent when the request sets no limit; the
	// Messages API requires one.
	DefaultMaxTokens = 4096

	apiVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic provider.
type Config struct {
	// BaseURL defaults to DefaultBaseURL if empty.
	BaseURL string

	APIKey string

	// Model defaults to DefaultModel if empty.
	Model string

	HTTPClient *http.Client
}

// Provider implements provider.Provider for Anthropic.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a Provider from cfg.
func New(cfg Config) *Provider {
	baseURL := strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), "/v1")
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
	return "anthropic"
}

func (p *Provider) Model() string {
	return p.model
}

// Stream posts req to {baseURL}/v1/messages and relays the SSE reply.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest, onChunk func(*llm.StreamChunk) error) error {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	// The Messages API takes the system prompt as a top-level field.
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		Messages:    messages,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("anthropic-version", apiVersion)
	if p.apiKey != "" {
		httpReq.Header.Set("x-api-key", p.apiKey)
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

	final := &llm.StreamChunk{Model: model, Done: true, Usage: &llm.Usage{}}

	r := sse.NewReader(resp.Body)
	for {
		ev, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			return llm.ErrIncompleteStream
		}

		var se streamEvent
		if err := json.Unmarshal([]byte(ev.Data), &se); err != nil {
			return fmt.Errorf("parsing stream event %q: %w", ev.Type, err)
		}

		switch se.Type {
		case "message_start":
			if se.Message != nil {
				if se.Message.Model != "" {
					final.Model = se.Message.Model
				}
				if se.Message.Usage != nil {
					final.Usage.PromptTokens = se.Message.Usage.InputTokens
				}
			}

		case "content_block_delta":
			if se.Delta == nil || se.Delta.Text == "" {
				continue
			}
			if err := onChunk(&llm.StreamChunk{Model: final.Model, Content: se.Delta.Text}); err != nil {
				return err
			}

		case "message_delta":
			if se.Delta != nil && se.Delta.StopReason != "" {
				final.StopReason = se.Delta.StopReason
			}
			if se.Usage != nil {
				final.Usage.CompletionTokens = se.Usage.OutputTokens
			}

		case "message_stop":
			final.Usage.TotalTokens = final.Usage.PromptTokens + final.Usage.CompletionTokens
			return onChunk(final)

		case "error":
			if se.Error != nil {
				return errors.New(se.Error.Message)
			}
			return errors.New("anthropic stream error")
		}
	}
}
