package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/llm/provider"
)

var _ = Describe("New", func() {
	It("defaults to the OpenAI-compatible provider", func() {
		p, err := provider.New(llm.Settings{Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name()).To(Equal(provider.OpenAI))
		Expect(p.Model()).To(Equal("deepseek-chat"))
	})

	It("builds every supported provider", func() {
		for _, name := range provider.SupportedProviders() {
			p, err := provider.New(llm.Settings{Provider: name}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name()).To(Equal(name))
		}
	})

	It("is case insensitive", func() {
		p, err := provider.New(llm.Settings{Provider: "Ollama"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name()).To(Equal(provider.Ollama))
	})

	It("rejects unknown providers", func() {
		_, err := provider.New(llm.Settings{Provider: "carrier-pigeon"}, nil)
		Expect(err).To(MatchError(ContainSubstring("unknown provider type")))
	})
})
