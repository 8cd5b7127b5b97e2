package provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/chatter/pkg/llm/provider/ollama"
	"github.com/papercomputeco/chatter/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Ollama}
}

// New creates a Provider for s. An empty provider name means OpenAI, which
// also covers every OpenAI-compatible endpoint in llm.Presets.
func New(s llm.Settings, client *http.Client) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "", OpenAI:
		return openai.New(openai.Config{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      s.Model,
			HTTPClient: client,
		}), nil
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			HTTPClient: client,
		}), nil
	case Anthropic:
		return anthropic.New(anthropic.Config{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      s.Model,
			HTTPClient: client,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", s.Provider, SupportedProviders())
	}
}
