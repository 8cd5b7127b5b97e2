// Package api provides the HTTP API server chat clients talk to: the
// streaming chat endpoint, conversation history and provider settings.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
