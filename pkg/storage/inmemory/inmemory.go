package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/chatter/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu is a read write sync mutex guarding all fields below
	mu sync.RWMutex

	conversations map[int64]*storage.Conversation

	// messages holds each conversation's messages in insertion order
	messages map[int64][]*storage.Message

	lastConversationID int64
	lastMessageID      int64

	now func() time.Time
}

// NewDriver creates a new in-memory storer.
func NewDriver() *Driver {
	return &Driver{
		conversations: make(map[int64]*storage.Conversation),
		messages:      make(map[int64][]*storage.Message),
		now:           time.Now,
	}
}

// CreateConversation stores a new conversation.
func (s *Driver) CreateConversation(_ context.Context, title string) (*storage.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastConversationID++
	conv := &storage.Conversation{
		ID:        s.lastConversationID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv

	c := *conv
	return &c, nil
}

// GetConversation retrieves a conversation by id.
func (s *Driver) GetConversation(_ context.Context, id int64) (*storage.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, storage.NotFoundError{ConversationID: id}
	}

	c := *conv
	return &c, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *Driver) ListConversations(_ context.Context) ([]*storage.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]*storage.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		c := *conv
		convs = append(convs, &c)
	}

	sort.Slice(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID > convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	return convs, nil
}

// AddMessage appends msg to its conversation.
func (s *Driver) AddMessage(_ context.Context, msg *storage.Message) error {
	if msg == nil {
		return errors.New("cannot store nil message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return storage.NotFoundError{ConversationID: msg.ConversationID}
	}

	s.lastMessageID++
	msg.ID = s.lastMessageID
	msg.CreatedAt = s.now()
	conv.UpdatedAt = msg.CreatedAt

	m := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &m)
	return nil
}

// Messages returns a conversation's messages, oldest first.
func (s *Driver) Messages(_ context.Context, conversationID int64) ([]*storage.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, storage.NotFoundError{ConversationID: conversationID}
	}

	stored := s.messages[conversationID]
	msgs := make([]*storage.Message, 0, len(stored))
	for _, msg := range stored {
		m := *msg
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// Count returns the number of conversations in the in-memory store.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Close is a no-op for the in-memory storer.
func (s *Driver) Close() error {
	return nil
}
