package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatter/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after an assistant reply is stored.
	EventTypeTurnCompleted = "chatter.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Timing        TurnTiming  `json:"timing"`
	Turn          llm.Turn    `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider"`
}

// TurnTiming captures the lifecycle of the upstream stream.
type TurnTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewTurnCompletedEvent builds an event for turn with a fresh event id.
func NewTurnCompletedEvent(turn llm.Turn, startedAt, completedAt time.Time) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     completedAt.UTC(),
		Source: EventSource{
			Service:  "chatter",
			Provider: turn.Provider,
		},
		Timing: TurnTiming{
			StartedAt:   startedAt.UTC(),
			CompletedAt: completedAt.UTC(),
			DurationMs:  completedAt.Sub(startedAt).Milliseconds(),
		},
		Turn: turn,
	}
}
