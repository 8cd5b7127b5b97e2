// Package assistant is the backend chat service. It owns the active upstream
// provider, persists every exchange through a storage.Driver and streams
// replies to its caller through callbacks.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/paramstore"
	"github.com/papercomputeco/chatter/pkg/storage"
	"github.com/papercomputeco/chatter/pkg/utils"
	"github.com/papercomputeco/chatter/pkg/worker"
)

// DefaultSystemPrompt is sent ahead of the history when none is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant."

const titleMaxRunes = 50

var (
	// ErrRateLimited is returned when a chat request exceeds the configured rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")
)

// ProviderFactory builds a provider for the given settings.
type ProviderFactory func(llm.Settings, *http.Client) (provider.Provider, error)

// Callbacks receive progress from ChatStream.
type Callbacks struct {
	// OnStart is called once the conversation id is known, before any content.
	OnStart func(conversationID int64) error

	// OnContent is called for every non-empty reply fragment, in order.
	OnContent func(chunk string) error
}

// Config configures a Service.
type Config struct {
	Driver   storage.Driver
	Settings llm.Settings

	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string

	// RateLimit is the sustained number of chat requests allowed per second.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int

	// Pool receives completed turns for publishing. Optional.
	Pool *worker.Pool

	// Secrets resolves "ssm:" api key references. Optional.
	Secrets paramstore.Getter

	HTTPClient  *http.Client
	NewProvider ProviderFactory
	Logger      *slog.Logger
}

// Service relays chat messages to the configured provider.
type Service struct {
	driver      storage.Driver
	pool        *worker.Pool
	secrets     paramstore.Getter
	httpClient  *http.Client
	newProvider ProviderFactory
	logger      *slog.Logger

	mu           sync.RWMutex
	settings     llm.Settings
	provider     provider.Provider
	systemPrompt string
	limiter      *rate.Limiter
}

// New creates a Service and builds its initial provider. Settings.APIKey
// must already be resolved; use UpdateSettings for "ssm:" references.
func New(c *Config) (*Service, error) {
	if c.Driver == nil {
		return nil, errors.New("assistant requires a storage driver")
	}

	s := &Service{
		driver:      c.Driver,
		pool:        c.Pool,
		secrets:     c.Secrets,
		httpClient:  c.HTTPClient,
		newProvider: c.NewProvider,
		logger:      c.Logger,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	if s.newProvider == nil {
		s.newProvider = provider.New
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}

	p, err := s.newProvider(c.Settings, s.httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	s.settings = c.Settings
	s.provider = p
	s.SetSystemPrompt(c.SystemPrompt)
	s.SetRateLimit(c.RateLimit, c.RateBurst)
	return s, nil
}

// SetSystemPrompt replaces the system prompt used for new requests. An empty
// prompt restores DefaultSystemPrompt.
func (s *Service) SetSystemPrompt(prompt string) {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultSystemPrompt
	}
	s.mu.Lock()
	s.systemPrompt = prompt
	s.mu.Unlock()
}

// SetRateLimit replaces the chat request limiter. A limit of zero or less
// disables limiting.
func (s *Service) SetRateLimit(limit float64, burst int) {
	l := rate.Inf
	if limit > 0 {
		l = rate.Limit(limit)
	}
	if burst < 1 {
		burst = 1
	}

	s.mu.Lock()
	s.limiter = rate.NewLimiter(l, burst)
	s.mu.Unlock()
}

// ChatStream sends message in the conversation identified by conversationID,
// creating a new conversation when it is 0. The reply streams through cb.
// It returns the full reply and the conversation id; the id is valid even
// when an error is returned after the conversation was resolved.
func (s *Service) ChatStream(ctx context.Context, conversationID int64, message string, cb Callbacks) (string, int64, error) {
	if strings.TrimSpace(message) == "" {
		return "", conversationID, ErrEmptyMessage
	}

	s.mu.RLock()
	p := s.provider
	systemPrompt := s.systemPrompt
	limiter := s.limiter
	s.mu.RUnlock()

	if !limiter.Allow() {
		return "", conversationID, ErrRateLimited
	}

	if conversationID == 0 {
		conv, err := s.driver.CreateConversation(ctx, utils.Truncate(message, titleMaxRunes))
		if err != nil {
			return "", 0, fmt.Errorf("creating conversation: %w", err)
		}
		conversationID = conv.ID
		s.logger.Debug("conversation created", "conversation_id", conversationID)
	} else if _, err := s.driver.GetConversation(ctx, conversationID); err != nil {
		return "", conversationID, err
	}

	if cb.OnStart != nil {
		if err := cb.OnStart(conversationID); err != nil {
			return "", conversationID, err
		}
	}

	userMsg := &storage.Message{
		ConversationID: conversationID,
		Role:           llm.RoleUser,
		Content:        message,
	}
	if err := s.driver.AddMessage(ctx, userMsg); err != nil {
		return "", conversationID, fmt.Errorf("saving user message: %w", err)
	}

	history, err := s.driver.Messages(ctx, conversationID)
	if err != nil {
		return "", conversationID, fmt.Errorf("loading history: %w", err)
	}

	req := &llm.ChatRequest{
		Model:    p.Model(),
		Messages: buildMessages(systemPrompt, history),
	}

	startedAt := time.Now()
	var (
		reply strings.Builder
		usage *llm.Usage
	)
	err = p.Stream(ctx, req, func(chunk *llm.StreamChunk) error {
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.Content == "" {
			return nil
		}
		reply.WriteString(chunk.Content)
		if cb.OnContent != nil {
			return cb.OnContent(chunk.Content)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("upstream stream failed",
			"provider", p.Name(),
			"conversation_id", conversationID,
			"error", err,
		)
		return "", conversationID, fmt.Errorf("failed to generate response: %w", err)
	}

	assistantMsg := &storage.Message{
		ConversationID: conversationID,
		Role:           llm.RoleAssistant,
		Content:        reply.String(),
	}
	if err := s.driver.AddMessage(ctx, assistantMsg); err != nil {
		return "", conversationID, fmt.Errorf("saving assistant message: %w", err)
	}

	if s.pool != nil {
		s.pool.Enqueue(worker.Job{
			Turn: llm.Turn{
				ConversationID: conversationID,
				Provider:       p.Name(),
				Model:          req.Model,
				Prompt:         message,
				Reply:          reply.String(),
				Usage:          usage,
			},
			StartedAt:   startedAt,
			CompletedAt: time.Now(),
		})
	}

	return reply.String(), conversationID, nil
}

// buildMessages prepends the system prompt to the stored history. Messages
// with roles other than user and assistant are skipped.
func buildMessages(systemPrompt string, history []*storage.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.NewTextMessage(llm.RoleSystem, systemPrompt))
	for _, m := range history {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
			msgs = append(msgs, llm.NewTextMessage(m.Role, m.Content))
		}
	}
	return msgs
}

// Conversations lists stored conversations, most recently updated first.
func (s *Service) Conversations(ctx context.Context) ([]*storage.Conversation, error) {
	return s.driver.ListConversations(ctx)
}

// Messages returns a conversation's history, oldest first.
func (s *Service) Messages(ctx context.Context, conversationID int64) ([]*storage.Message, error) {
	return s.driver.Messages(ctx, conversationID)
}
