package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/chatter/pkg/eventstream"
	"github.com/papercomputeco/chatter/pkg/llm"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *fakeWriter
		p *Publisher
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = newPublisher(w, "turns")
	})

	It("requires brokers and a topic", func() {
		_, err := NewPublisher(Config{Topic: "turns"})
		Expect(err).To(MatchError(ContainSubstring("broker")))

		_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("rejects nil events", func() {
		Expect(p.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(w.msgs).To(BeEmpty())
	})

	It("writes the event as JSON keyed by conversation id", func() {
		now := time.Now()
		event := eventstream.NewTurnCompletedEvent(llm.Turn{ConversationID: 42, Provider: "openai", Reply: "hi"}, now, now)

		Expect(p.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(w.msgs).To(HaveLen(1))
		Expect(string(w.msgs[0].Key)).To(Equal("42"))

		var got eventstream.TurnCompletedEvent
		Expect(json.Unmarshal(w.msgs[0].Value, &got)).To(Succeed())
		Expect(got.EventID).To(Equal(event.EventID))
		Expect(got.Turn.Reply).To(Equal("hi"))
		Expect(w.msgs[0].Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnCompleted)}))
	})

	It("wraps writer errors with the topic", func() {
		w.err = errors.New("broker down")
		event := eventstream.NewTurnCompletedEvent(llm.Turn{}, time.Now(), time.Now())

		err := p.PublishTurn(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("turns")))
		Expect(errors.Is(err, w.err)).To(BeTrue())
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
