package llm

import (
	"errors"
	"fmt"
)

// ErrIncompleteStream is returned when an upstream stream ends before the
// provider signalled completion.
var ErrIncompleteStream = errors.New("upstream stream ended before completion")

// APIError is a non-success response from an upstream provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
