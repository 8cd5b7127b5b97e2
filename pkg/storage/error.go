package storage

import "fmt"

// NotFoundError is returned when a conversation doesn't exist in the store.
type NotFoundError struct {
	ConversationID int64
}

func (e NotFoundError) Error() string {
	if e.ConversationID == 0 {
		return "conversation not found"
	}

	return fmt.Sprintf("conversation not found: %d", e.ConversationID)
}
