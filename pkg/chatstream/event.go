// Package chatstream turns a chat stream response body into ordered
// application events. ParseLine recognizes a single event line and Session
// drives a whole request/response exchange, dispatching each event to a
// Handler as soon as its line is complete.
package chatstream

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/chatter/pkg/sse"
)

// Payload discriminators on the wire.
const (
	TypeStart   = "start"
	TypeContent = "content"
	TypeError   = "error"
	TypeDone    = "done"
)

// Event is one of StartEvent, ContentEvent, ErrorEvent or DoneEvent.
type Event interface {
	isEvent()
}

// StartEvent reports the conversation id the server assigned or confirmed.
type StartEvent struct {
	ConversationID int64
}

// ContentEvent carries the next fragment of the assistant reply.
type ContentEvent struct {
	Delta string
}

// ErrorEvent ends the stream with a failure. Message is shown to the user
// verbatim.
type ErrorEvent struct {
	Message string
}

// DoneEvent ends the stream successfully. ConversationID is zero when the
// server omits it.
type DoneEvent struct {
	ConversationID int64
}

func (StartEvent) isEvent()   {}
func (ContentEvent) isEvent() {}
func (ErrorEvent) isEvent()   {}
func (DoneEvent) isEvent()    {}

// IsTerminal reports whether ev ends a stream.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case ErrorEvent, DoneEvent:
		return true
	default:
		return false
	}
}

// Payload is the JSON object carried by an event line.
type Payload struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Event maps the payload to its variant. The second result is false for an
// unrecognized type.
func (p Payload) Event() (Event, bool) {
	switch p.Type {
	case TypeStart:
		return StartEvent{ConversationID: p.ConversationID}, true
	case TypeContent:
		return ContentEvent{Delta: p.Content}, true
	case TypeError:
		return ErrorEvent{Message: p.Error}, true
	case TypeDone:
		return DoneEvent{ConversationID: p.ConversationID}, true
	default:
		return nil, false
	}
}

// PayloadOf is the inverse of Payload.Event.
func PayloadOf(ev Event) Payload {
	switch e := ev.(type) {
	case StartEvent:
		return Payload{Type: TypeStart, ConversationID: e.ConversationID}
	case ContentEvent:
		return Payload{Type: TypeContent, Content: e.Delta}
	case ErrorEvent:
		return Payload{Type: TypeError, Error: e.Message}
	case DoneEvent:
		return Payload{Type: TypeDone, ConversationID: e.ConversationID}
	default:
		panic(fmt.Sprintf("chatstream: unknown event %T", ev))
	}
}

// Frame encodes ev as a complete event line followed by a blank line, ready
// to be written to a text/event-stream response.
func Frame(ev Event) ([]byte, error) {
	data, err := json.Marshal(PayloadOf(ev))
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}

	out := make([]byte, 0, len(sse.DataPrefix)+len(data)+3)
	out = append(out, sse.DataPrefix...)
	out = append(out, ' ')
	out = append(out, data...)
	out = append(out, '\n', '\n')
	return out, nil
}
