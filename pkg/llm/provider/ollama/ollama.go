// Package ollama streams chat completions from Ollama's native /api/chat
// endpoint.
package ollama

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
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "llama3"
)

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// A trailing "/v1" from the OpenAI-compatible preset is stripped.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model defaults to DefaultModel if empty.
	Model string

	HTTPClient *http.Client
}

// Provider implements provider.Provider for Ollama.
type Provider struct {
	baseURL    string
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
		model:      model,
		httpClient: client,
	}
}

func (p *Provider) Name() string {
	return "ollama"
}

func (p *Provider) Model() string {
	return p.model
}

// Stream posts req to {baseURL}/api/chat and relays the newline delimited
// JSON reply.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest, onChunk func(*llm.StreamChunk) error) error {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]ollamaMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	ollamaReq := ollamaRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		ollamaReq.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &llm.APIError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	lines := sse.NewLineReader(resp.Body)
	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return llm.ErrIncompleteStream
		}
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		chunk, err := ParseStreamChunk([]byte(line))
		if err != nil {
			return err
		}
		if chunk.Content == "" && !chunk.Done {
			continue
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
		if chunk.Done {
			return nil
		}
	}
}

// ParseStreamChunk converts one line of an Ollama chat stream.
func ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("parsing stream chunk: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	chunk := &llm.StreamChunk{
		Model:   resp.Model,
		Content: resp.Message.Content,
		Done:    resp.Done,
	}
	if resp.Done {
		chunk.StopReason = resp.DoneReason
		chunk.Usage = &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}
	return chunk, nil
}
