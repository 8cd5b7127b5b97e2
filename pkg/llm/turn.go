package llm

// Turn is a completed user/assistant exchange within a conversation.
type Turn struct {
	ConversationID int64  `json:"conversation_id"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Reply          string `json:"reply"`
	Usage          *Usage `json:"usage,omitempty"`
}
