// Package conversation holds the client side state of a chat: the message
// list of the conversation on screen, the reply being streamed into it, and a
// cache of conversation summaries for navigation.
package conversation

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation. Error marks an assistant message
// whose Content is a failure description rather than a reply. Partial holds
// reply text received before the failure when partial content is kept.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Error     bool      `json:"error,omitempty"`
	Partial   string    `json:"partial,omitempty"`
}

// Summary describes a stored conversation.
type Summary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
