// Package client talks to the chatter backend over HTTP. It opens chat
// streams for chatstream.Session and fetches conversations and settings.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/logger"
)

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:8080"

	defaultRequestTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4096
)

// StatusError is a non-2xx response from a JSON endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL string

	// RequestTimeout bounds non-streaming requests. Chat streams are bounded
	// only by their context.
	RequestTimeout time.Duration

	// HTTPClient is used for every request. Its Timeout must be zero or
	// long enough for a whole reply.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a chatter backend client.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

// New creates a Client from c.
func New(c Config) *Client {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Client{
		baseURL:        baseURL,
		requestTimeout: c.RequestTimeout,
		httpClient:     c.HTTPClient,
		logger:         c.Logger,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OpenStream posts req to the chat stream endpoint and returns the response
// body. A non-2xx status yields an error wrapping chatstream.ErrRequestFailed.
func (c *Client) OpenStream(ctx context.Context, req chatstream.Request) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("opening chat stream",
		"target", c.baseURL,
		"conversation_id", req.ConversationID,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", chatstream.ErrRequestFailed, readStatusError(resp))
	}

	return resp.Body, nil
}

// ListConversations returns the stored conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]conversation.Summary, error) {
	var out struct {
		Conversations []conversation.Summary `json:"conversations"`
	}
	if err := c.getJSON(ctx, "/api/conversations", &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Messages returns a conversation's history, oldest first.
func (c *Client) Messages(ctx context.Context, conversationID int64) ([]conversation.Message, error) {
	var out struct {
		Messages []conversation.Message `json:"messages"`
	}
	path := "/api/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages"
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Settings returns the backend's provider settings with the key masked.
func (c *Client) Settings(ctx context.Context) (llm.Settings, error) {
	var s llm.Settings
	err := c.getJSON(ctx, "/api/settings", &s)
	return s, err
}

// UpdateSettings replaces the backend's provider settings and returns the
// server's acknowledgement.
func (c *Client) UpdateSettings(ctx context.Context, s llm.Settings) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/settings", s, &out)
	return out.Message, err
}

// Providers returns the provider presets the backend offers.
func (c *Client) Providers(ctx context.Context) ([]llm.Preset, error) {
	var out struct {
		Providers []llm.Preset `json:"providers"`
	}
	if err := c.getJSON(ctx, "/api/providers", &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("backend reported status %q", out.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// readStatusError builds a StatusError, preferring the {"error": ...} body
// the backend sends.
func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}

	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
