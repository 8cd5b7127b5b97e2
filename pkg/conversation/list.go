package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/papercomputeco/chatter/pkg/logger"
)

// Lister fetches conversation summaries, newest first.
type Lister interface {
	ListConversations(ctx context.Context) ([]Summary, error)
}

// List caches the conversation summaries shown for navigation.
type List struct {
	lister Lister
	logger *slog.Logger

	mu    sync.RWMutex
	items []Summary
}

// NewList returns an empty List backed by lister.
func NewList(lister Lister, l *slog.Logger) *List {
	if l == nil {
		l = logger.Nop()
	}
	return &List{lister: lister, logger: l}
}

// Refresh replaces the cache with the lister's current summaries. The cache
// is left unchanged on error.
func (l *List) Refresh(ctx context.Context) error {
	items, err := l.lister.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	l.logger.Debug("refreshed conversation list", "count", len(items))
	return nil
}

// RefreshIfUnknown refreshes only when id is not already cached. It reports
// whether a refresh happened.
func (l *List) RefreshIfUnknown(ctx context.Context, id int64) (bool, error) {
	if _, ok := l.Get(id); ok {
		return false, nil
	}
	return true, l.Refresh(ctx)
}

// Items returns a copy of the cached summaries.
func (l *List) Items() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Summary(nil), l.items...)
}

// Get returns the cached summary for id.
func (l *List) Get(id int64) (Summary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.items {
		if s.ID == id {
			return s, true
		}
	}
	return Summary{}, false
}
