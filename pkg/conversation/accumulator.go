package conversation

import (
	"strings"
	"time"

	"github.com/papercomputeco/chatter/pkg/chatstream"
)

// Phase is the state of the exchange an Accumulator is tracking.
type Phase int

const (
	// PhaseIdle means no exchange has run since the last reset or abort.
	PhaseIdle Phase = iota

	// PhaseSending means a message was submitted and no event has arrived.
	PhaseSending

	// PhaseStreaming means at least one start or content event arrived.
	PhaseStreaming

	// PhaseFinalized means the last exchange ended with a done event.
	PhaseFinalized

	// PhaseFailed means the last exchange ended with an error.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseFinalized:
		return "finalized"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether an exchange is running.
func (p Phase) InFlight() bool {
	return p == PhaseSending || p == PhaseStreaming
}

// Config configures an Accumulator.
type Config struct {
	// OnRefresh is called once per exchange, after its done event, when the
	// exchange ended on a different conversation id than it started with.
	OnRefresh func(conversationID int64)

	// KeepPartial stores reply text received before a failure on the
	// error message's Partial field instead of discarding it.
	KeepPartial bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Accumulator is the state machine for one conversation view:
//
//	Idle -> Sending -> Streaming -> Finalized | Failed
//
// Finalized and Failed are resting phases; a new Submit may start from them.
// An Accumulator is not safe for concurrent use. All calls, including
// HandleEvent, must come from the goroutine that owns the view.
type Accumulator struct {
	phase          Phase
	conversationID int64

	// startID is the conversation id when the current exchange was
	// submitted; latestID is the newest id the exchange reported.
	startID  int64
	latestID int64

	messages  []Message
	streaming strings.Builder
	nextID    int64

	onRefresh   func(int64)
	keepPartial bool
	now         func() time.Time
}

// New returns an idle Accumulator for a new conversation.
func New(c *Config) *Accumulator {
	if c == nil {
		c = &Config{}
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}
	return &Accumulator{
		nextID:      1,
		onRefresh:   c.OnRefresh,
		keepPartial: c.KeepPartial,
		now:         now,
	}
}

// Submit starts an exchange for text. It appends the user message right
// away and returns the request to send. It refuses, returning false, while
// another exchange is in flight or when text is blank.
func (a *Accumulator) Submit(text string) (chatstream.Request, bool) {
	text = strings.TrimSpace(text)
	if a.phase.InFlight() || text == "" {
		return chatstream.Request{}, false
	}

	a.append(RoleUser, text, false, "")
	a.streaming.Reset()
	a.startID = a.conversationID
	a.latestID = a.conversationID
	a.phase = PhaseSending

	return chatstream.Request{
		ConversationID: a.conversationID,
		Message:        text,
	}, true
}

// HandleEvent folds ev into the state. Events that arrive while no exchange
// is in flight are ignored.
func (a *Accumulator) HandleEvent(ev chatstream.Event) {
	if !a.phase.InFlight() {
		return
	}

	switch e := ev.(type) {
	case chatstream.StartEvent:
		a.phase = PhaseStreaming
		a.observe(e.ConversationID)

	case chatstream.ContentEvent:
		a.phase = PhaseStreaming
		a.streaming.WriteString(e.Delta)

	case chatstream.DoneEvent:
		a.observe(e.ConversationID)
		a.append(RoleAssistant, a.streaming.String(), false, "")
		a.streaming.Reset()
		a.phase = PhaseFinalized

		if a.latestID != 0 && a.latestID != a.startID && a.onRefresh != nil {
			a.onRefresh(a.latestID)
		}

	case chatstream.ErrorEvent:
		var partial string
		if a.keepPartial {
			partial = a.streaming.String()
		}
		a.append(RoleAssistant, e.Message, true, partial)
		a.streaming.Reset()
		a.phase = PhaseFailed
	}
}

// observe records an id reported by the server and adopts it when the view
// has none yet.
func (a *Accumulator) observe(id int64) {
	if id == 0 {
		return
	}
	a.latestID = id
	if a.conversationID == 0 {
		a.conversationID = id
	}
}

// Abort abandons the in-flight exchange without adding a reply. The user
// message stays. Abort is a no-op when nothing is in flight.
func (a *Accumulator) Abort() {
	if !a.phase.InFlight() {
		return
	}
	a.streaming.Reset()
	a.phase = PhaseIdle
}

// Reset switches the view to a new, empty conversation.
func (a *Accumulator) Reset() {
	a.Load(0, nil)
}

// Load switches the view to an existing conversation.
func (a *Accumulator) Load(conversationID int64, history []Message) {
	a.phase = PhaseIdle
	a.conversationID = conversationID
	a.startID = conversationID
	a.latestID = conversationID
	a.streaming.Reset()
	a.messages = append([]Message(nil), history...)

	a.nextID = 1
	for _, m := range a.messages {
		if m.ID >= a.nextID {
			a.nextID = m.ID + 1
		}
	}
}

// Phase returns the current phase.
func (a *Accumulator) Phase() Phase {
	return a.phase
}

// ConversationID returns the conversation on screen, or zero for a new one
// the server has not assigned yet.
func (a *Accumulator) ConversationID() int64 {
	return a.conversationID
}

// Streaming returns the reply text accumulated so far in this exchange.
func (a *Accumulator) Streaming() string {
	return a.streaming.String()
}

// Messages returns a copy of the finalized messages.
func (a *Accumulator) Messages() []Message {
	return append([]Message(nil), a.messages...)
}

// Last returns the most recent message.
func (a *Accumulator) Last() (Message, bool) {
	if len(a.messages) == 0 {
		return Message{}, false
	}
	return a.messages[len(a.messages)-1], true
}

func (a *Accumulator) append(role Role, content string, isErr bool, partial string) {
	a.messages = append(a.messages, Message{
		ID:        a.nextID,
		Role:      role,
		Content:   content,
		CreatedAt: a.now(),
		Error:     isErr,
		Partial:   partial,
	})
	a.nextID++
}
