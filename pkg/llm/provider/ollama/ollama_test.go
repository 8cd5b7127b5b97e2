package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider/ollama"
)

var _ = Describe("Ollama Provider", func() {
	var (
		server   *httptest.Server
		body     string
		status   int
		received map[string]any
		p        *ollama.Provider
	)

	BeforeEach(func() {
		status = http.StatusOK
		body = `{"model":"llama3","message":{"role":"assistant","content":"Hel"},"done":false}` + "\n" +
			`{"model":"llama3","message":{"role":"assistant","content":"lo"},"done":false}` + "\n" +
			`{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":4,"eval_count":2}` + "\n"

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))

			raw, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			received = map[string]any{}
			Expect(json.Unmarshal(raw, &received)).To(Succeed())

			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}))

		// The OpenAI-compatible preset URL resolves to the native root.
		p = ollama.New(ollama.Config{BaseURL: server.URL + "/v1"})
	})

	AfterEach(func() {
		server.Close()
	})

	collect := func() ([]*llm.StreamChunk, error) {
		var chunks []*llm.StreamChunk
		err := p.Stream(context.Background(), &llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
		}, func(c *llm.StreamChunk) error {
			chunks = append(chunks, c)
			return nil
		})
		return chunks, err
	}

	It("uses the default model", func() {
		Expect(p.Name()).To(Equal("ollama"))
		Expect(p.Model()).To(Equal(ollama.DefaultModel))
	})

	It("streams newline delimited chunks", func() {
		chunks, err := collect()
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Content + chunks[1].Content).To(Equal("Hello"))

		final := chunks[2]
		Expect(final.Done).To(BeTrue())
		Expect(final.StopReason).To(Equal("stop"))
		Expect(final.Usage.TotalTokens).To(Equal(6))

		Expect(received["stream"]).To(BeTrue())
		Expect(received["model"]).To(Equal(ollama.DefaultModel))
	})

	It("returns an APIError for a non-success status", func() {
		status = http.StatusNotFound
		body = `{"error":"model not found"}`

		_, err := collect()
		var apiErr *llm.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Provider).To(Equal("ollama"))
	})

	It("surfaces an error line", func() {
		body = `{"error":"out of memory"}` + "\n"

		_, err := collect()
		Expect(err).To(MatchError("out of memory"))
	})

	It("fails a stream without a done line", func() {
		body = `{"message":{"role":"assistant","content":"x"},"done":false}`

		chunks, err := collect()
		Expect(err).To(MatchError(llm.ErrIncompleteStream))
		Expect(chunks).To(HaveLen(1))
	})
})
