package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/client"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/llm"
)

// writeChunks writes each chunk as its own flushed write so the client sees
// the same boundaries.
func writeChunks(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher := w.(http.Flusher)
	for _, c := range chunks {
		_, _ = io.WriteString(w, c)
		flusher.Flush()
		time.Sleep(time.Millisecond)
	}
}

var _ = Describe("Client", func() {
	var (
		mux    *http.ServeMux
		server *httptest.Server
		c      *client.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		c = client.New(client.Config{BaseURL: server.URL + "/"})
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	It("trims the trailing slash from the base url", func() {
		Expect(c.BaseURL()).To(Equal(server.URL))
	})

	Describe("OpenStream", func() {
		It("posts the request and returns the body", func() {
			var got chatstream.Request
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				writeChunks(w, "data: {\"type\":\"done\"}\n\n")
			})

			body, err := c.OpenStream(ctx, chatstream.Request{ConversationID: 3, Message: "hi"})
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			raw, err := io.ReadAll(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal("data: {\"type\":\"done\"}\n\n"))
			Expect(got).To(Equal(chatstream.Request{ConversationID: 3, Message: "hi"}))
		})

		It("wraps ErrRequestFailed on a non-2xx status", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"message is required"}`)
			})

			_, err := c.OpenStream(ctx, chatstream.Request{Message: " "})
			Expect(errors.Is(err, chatstream.ErrRequestFailed)).To(BeTrue())

			var se *client.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(se.Message).To(Equal("message is required"))
		})

		It("returns transport errors unwrapped from ErrRequestFailed", func() {
			server.Close()
			_, err := c.OpenStream(ctx, chatstream.Request{Message: "hi"})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, chatstream.ErrRequestFailed)).To(BeFalse())
		})
	})

	Describe("JSON endpoints", func() {
		It("lists conversations", func() {
			mux.HandleFunc("GET /api/conversations", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"conversations":[{"id":2,"title":"b","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-02T00:00:00Z"},{"id":1,"title":"a","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}]}`)
			})

			convs, err := c.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(2))
			Expect(convs[0].ID).To(BeEquivalentTo(2))
			Expect(convs[0].Title).To(Equal("b"))
			Expect(convs[0].UpdatedAt).To(Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
		})

		It("fetches messages", func() {
			mux.HandleFunc("GET /api/conversations/7/messages", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"messages":[{"id":1,"conversation_id":7,"role":"user","content":"hi","created_at":"2025-01-01T00:00:00Z"},{"id":2,"conversation_id":7,"role":"assistant","content":"hello","created_at":"2025-01-01T00:00:01Z"}]}`)
			})

			msgs, err := c.Messages(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(conversation.RoleUser))
			Expect(msgs[1].Content).To(Equal("hello"))
		})

		It("reports 404s", func() {
			mux.HandleFunc("GET /api/conversations/9/messages", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":"conversation not found: 9"}`)
			})

			_, err := c.Messages(ctx, 9)
			Expect(client.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("conversation not found: 9")))
		})

		It("gets and updates settings", func() {
			var posted llm.Settings
			mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"provider":"openai","model":"gpt-4o","base_url":"https://api.openai.com/v1","api_key":"sk-1****abcd"}`)
			})
			mux.HandleFunc("POST /api/settings", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&posted)).To(Succeed())
				_, _ = io.WriteString(w, `{"message":"settings updated"}`)
			})

			s, err := c.Settings(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.APIKey).To(Equal("sk-1****abcd"))

			s.Model = "gpt-4o-mini"
			msg, err := c.UpdateSettings(ctx, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("settings updated"))
			Expect(posted.Model).To(Equal("gpt-4o-mini"))
		})

		It("lists providers", func() {
			mux.HandleFunc("GET /api/providers", func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"providers": llm.Presets()})
			})

			presets, err := c.Providers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(presets).To(Equal(llm.Presets()))
		})

		It("checks health", func() {
			mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"status":"ok"}`)
			})
			Expect(c.Health(ctx)).To(Succeed())
		})

		It("uses the raw body when the error is not JSON", func() {
			mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			})
			err := c.Health(ctx)
			Expect(err).To(MatchError("server returned status 502: bad gateway"))
		})
	})

	Describe("driving a conversation", func() {
		It("accumulates a reply split at awkward boundaries", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				writeChunks(w,
					`data: {"type":"start","conversation_id":12}`+"\n\ndata: {\"type\":\"con",
					`tent","content":"Hel"}`+"\n\n",
					"data: {\"type\":\"content\",\"content\":\"lo \xe4\xb8",
					"\x96\xe7\x95\x8c\"}\n\ndata: {\"type\":\"done\",\"conversation_id\":12}\n\n",
				)
			})

			refreshed := []int64{}
			acc := conversation.New(&conversation.Config{
				OnRefresh: func(id int64) { refreshed = append(refreshed, id) },
			})
			session := chatstream.NewSession(&chatstream.Config{Opener: c})

			req, ok := acc.Submit("hi")
			Expect(ok).To(BeTrue())
			Expect(session.Run(ctx, req, acc)).To(Succeed())

			Expect(acc.Phase()).To(Equal(conversation.PhaseFinalized))
			Expect(acc.ConversationID()).To(BeEquivalentTo(12))
			last, ok := acc.Last()
			Expect(ok).To(BeTrue())
			Expect(last.Content).To(Equal("Hello 世界"))
			Expect(refreshed).To(Equal([]int64{12}))
		})

		It("shows a rejected request as a single error message", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			})

			acc := conversation.New(&conversation.Config{})
			session := chatstream.NewSession(&chatstream.Config{Opener: c})

			req, _ := acc.Submit("hi")
			Expect(session.Run(ctx, req, acc)).To(Succeed())

			Expect(acc.Phase()).To(Equal(conversation.PhaseFailed))
			msgs := acc.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[1].Error).To(BeTrue())
			Expect(msgs[1].Content).To(Equal(chatstream.RequestFailedMessage))
		})
	})
})
