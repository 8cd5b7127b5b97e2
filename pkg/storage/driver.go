// Package storage
package storage

import (
	"context"
	"time"
)

// Conversation is a stored chat conversation.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a stored chat message.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Driver defines the interface for persisting conversations and their
// messages in a storage backend. Conversation ids are assigned by the
// driver, are positive and increase with creation order.
type Driver interface {
	// CreateConversation stores a new conversation with the given title.
	CreateConversation(ctx context.Context, title string) (*Conversation, error)

	// GetConversation retrieves a conversation by id.
	GetConversation(ctx context.Context, id int64) (*Conversation, error)

	// ListConversations returns all conversations, most recently updated
	// first.
	ListConversations(ctx context.Context) ([]*Conversation, error)

	// AddMessage appends msg to its conversation and bumps the
	// conversation's UpdatedAt. ID and CreatedAt are assigned on msg.
	AddMessage(ctx context.Context, msg *Message) error

	// Messages returns a conversation's messages, oldest first.
	Messages(ctx context.Context, conversationID int64) ([]*Message, error)

	// Close closes the store and releases any resources.
	Close() error
}
