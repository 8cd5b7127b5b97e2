package assistant

import (
	"context"
	"fmt"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/paramstore"
)

// Settings returns the active provider settings with the api key masked.
func (s *Service) Settings() llm.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Masked()
}

// UpdateSettings switches to a provider built from next. Requests already
// streaming finish on the old provider.
//
// An api key equal to the masked current key keeps the current key, so a
// client can send back what Settings returned. "ssm:" references are
// resolved through the configured parameter store.
func (s *Service) UpdateSettings(ctx context.Context, next llm.Settings) error {
	s.mu.RLock()
	current := s.settings
	s.mu.RUnlock()

	if current.APIKey != "" && next.APIKey == llm.MaskKey(current.APIKey) {
		next.APIKey = current.APIKey
	}

	if paramstore.IsRef(next.APIKey) {
		key, err := paramstore.Resolve(ctx, s.secrets, next.APIKey)
		if err != nil {
			return fmt.Errorf("resolving api key: %w", err)
		}
		next.APIKey = key
	}

	p, err := s.newProvider(next, s.httpClient)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	s.mu.Lock()
	s.settings = next
	s.provider = p
	s.mu.Unlock()

	s.logger.Info("provider settings updated",
		"provider", p.Name(),
		"model", next.Model,
		"base_url", next.BaseURL,
	)
	return nil
}

// Presets returns the known provider endpoints.
func (s *Service) Presets() []llm.Preset {
	return llm.Presets()
}
