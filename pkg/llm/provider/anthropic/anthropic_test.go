package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider/anthropic"
)

var _ = Describe("Anthropic Provider", func() {
	var (
		server   *httptest.Server
		body     string
		received map[string]any
		headers  http.Header
		p        *anthropic.Provider
	)

	BeforeEach(func() {
		body = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-test\",\"usage\":{\"input_tokens\":10}}}\n\n" +
			"event: ping\ndata: {\"type\":\"ping\"}\n\n" +
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hel\"}}\n\n" +
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n" +
			"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":3}}\n\n" +
			"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/messages"))
			headers = r.Header.Clone()

			raw, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			received = map[string]any{}
			Expect(json.Unmarshal(raw, &received)).To(Succeed())

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, body)
		}))

		p = anthropic.New(anthropic.Config{BaseURL: server.URL, APIKey: "key"})
	})

	AfterEach(func() {
		server.Close()
	})

	collect := func() ([]*llm.StreamChunk, error) {
		var chunks []*llm.StreamChunk
		err := p.Stream(context.Background(), &llm.ChatRequest{
			System:   "be brief",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
		}, func(c *llm.StreamChunk) error {
			chunks = append(chunks, c)
			return nil
		})
		return chunks, err
	}

	It("streams text deltas then a done chunk", func() {
		chunks, err := collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Content).To(Equal("Hel"))
		Expect(chunks[1].Content).To(Equal("lo"))

		final := chunks[2]
		Expect(final.Done).To(BeTrue())
		Expect(final.Model).To(Equal("claude-test"))
		Expect(final.StopReason).To(Equal("end_turn"))
		Expect(final.Usage.TotalTokens).To(Equal(13))
	})

	It("sends the system prompt as a top-level field", func() {
		_, err := collect()
		Expect(err).NotTo(HaveOccurred())

		Expect(headers.Get("x-api-key")).To(Equal("key"))
		Expect(headers.Get("anthropic-version")).NotTo(BeEmpty())
		Expect(received["system"]).To(Equal("be brief"))
		Expect(received["max_tokens"]).To(BeNumerically("==", anthropic.DefaultMaxTokens))
		Expect(received["messages"]).To(HaveLen(1))
	})

	It("surfaces an error event", func() {
		body = "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n"

		_, err := collect()
		Expect(err).To(MatchError("Overloaded"))
	})

	It("fails a stream without message_stop", func() {
		body = "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"x\"}}\n\n"

		_, err := collect()
		Expect(err).To(MatchError(llm.ErrIncompleteStream))
	})
})
