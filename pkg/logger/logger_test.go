package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/logger"
)

// decodeJSON parses one JSON log record per line.
func decodeJSON(buf *bytes.Buffer) []map[string]any {
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
		records = append(records, rec)
	}
	return records
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

var _ = Describe("New", func() {
	DescribeTable("writes records in the selected format",
		func(opts []logger.Option, check func(string)) {
			var buf bytes.Buffer
			l := logger.New(append(opts, logger.WithWriter(&buf))...)
			l.Info("stream opened", "conversation_id", 7)
			check(buf.String())
		},
		Entry("text by default", nil, func(out string) {
			Expect(out).To(ContainSubstring("msg=\"stream opened\""))
			Expect(out).To(ContainSubstring("conversation_id=7"))
		}),
		Entry("pretty for the CLI", []logger.Option{logger.WithPretty(true)}, func(out string) {
			Expect(out).To(ContainSubstring("stream opened"))
			Expect(out).NotTo(ContainSubstring("msg="))
		}),
		Entry("JSON for the server", []logger.Option{logger.WithJSON(true)}, func(out string) {
			var rec map[string]any
			Expect(json.Unmarshal([]byte(out), &rec)).To(Succeed())
			Expect(rec["msg"]).To(Equal("stream opened"))
			Expect(rec["conversation_id"]).To(BeNumerically("==", 7))
		}),
		Entry("JSON over pretty", []logger.Option{logger.WithPretty(true), logger.WithJSON(true)}, func(out string) {
			Expect(out).To(HavePrefix("{"))
		}),
	)

	It("logs debug records only with WithDebug", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf)).Debug("parse failure")
		Expect(buf.String()).To(BeEmpty())

		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("parse failure")
		Expect(buf.String()).To(ContainSubstring("parse failure"))
	})

	It("writes to every writer and skips nil ones", func() {
		var a, b bytes.Buffer
		l := logger.New(logger.WithWriters(&a, nil, &b))
		l.Warn("idle stream")

		Expect(a.String()).To(ContainSubstring("idle stream"))
		Expect(b.String()).To(ContainSubstring("idle stream"))
	})

	It("adds the source location with WithSource", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true)).Info("here")
		Expect(decodeJSON(&buf)[0]).To(HaveKey("source"))
	})

	It("keeps attributes and groups on child loggers", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.With("component", "api").WithGroup("request").Info("handled", "path", "/api/chat/stream")

		rec := decodeJSON(&buf)[0]
		Expect(rec["component"]).To(Equal("api"))
		Expect(rec["request"]).To(HaveKeyWithValue("path", "/api/chat/stream"))
	})
})

var _ = Describe("Nop", func() {
	It("accepts every call and enables no level", func() {
		l := logger.Nop()
		Expect(func() {
			l.Error("dropped", "err", errors.New("x"))
			l.With("k", "v").WithGroup("g").Info("dropped")
		}).NotTo(Panic())
		Expect(l.Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})

var _ = Describe("Multi", func() {
	var console, file bytes.Buffer

	BeforeEach(func() {
		console.Reset()
		file.Reset()
	})

	It("sends each record to a console and a JSON file logger", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console), logger.WithPretty(true)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.With("listen", ":8081").Info("starting chatter backend")

		Expect(console.String()).To(ContainSubstring("starting chatter backend"))
		rec := decodeJSON(&file)[0]
		Expect(rec["msg"]).To(Equal("starting chatter backend"))
		Expect(rec["listen"]).To(Equal(":8081"))
	})

	It("filters each logger by its own level", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true), logger.WithDebug(true)),
		)
		l.Debug("frame parsed")

		Expect(console.String()).To(BeEmpty())
		Expect(decodeJSON(&file)).To(HaveLen(1))
		Expect(l.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
	})

	It("applies groups to every logger", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(&console), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.WithGroup("turn").Info("published", "provider", "openai")

		Expect(decodeJSON(&console)[0]["turn"]).To(HaveKeyWithValue("provider", "openai"))
		Expect(decodeJSON(&file)[0]["turn"]).To(HaveKeyWithValue("provider", "openai"))
	})

	It("keeps writing when one handler fails", func() {
		l := logger.Multi(
			slog.New(failingHandler{}),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
			nil,
		)

		err := l.Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still logged", 0))
		Expect(err).To(MatchError("disk full"))
		Expect(decodeJSON(&file)[0]["msg"]).To(Equal("still logged"))
	})
})
