package servecmder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/logger"
)

type fakeAssistant struct {
	mu        sync.Mutex
	settings  []llm.Settings
	prompts   []string
	limits    []float64
	updateErr error
}

func (f *fakeAssistant) UpdateSettings(_ context.Context, next llm.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.settings = append(f.settings, next)
	return nil
}

func (f *fakeAssistant) SetSystemPrompt(prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeAssistant) SetRateLimit(limit float64, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
}

func (f *fakeAssistant) updates() []llm.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Settings(nil), f.settings...)
}

var _ = Describe("configWatcher", func() {
	var (
		fake    *fakeAssistant
		current config.AssistantConfig
	)

	BeforeEach(func() {
		fake = &fakeAssistant{}
		current = config.AssistantConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "https://api.openai.com/v1",
		}
	})

	Describe("apply", func() {
		It("does nothing when the section is unchanged", func() {
			w := newConfigWatcher("", current, fake, logger.Nop())
			w.apply(context.Background(), current)

			Expect(fake.settings).To(BeEmpty())
			Expect(fake.prompts).To(BeEmpty())
			Expect(fake.limits).To(BeEmpty())
		})

		It("switches the provider when a setting changes", func() {
			w := newConfigWatcher("", current, fake, logger.Nop())
			next := current
			next.Model = "gpt-4o"
			w.apply(context.Background(), next)

			Expect(fake.settings).To(ConsistOf(llm.Settings{
				Provider: "openai",
				Model:    "gpt-4o",
				BaseURL:  "https://api.openai.com/v1",
			}))
			Expect(w.current).To(Equal(next))
		})

		It("updates the prompt and rate limit independently", func() {
			w := newConfigWatcher("", current, fake, logger.Nop())
			next := current
			next.SystemPrompt = "Answer briefly."
			next.RateLimit = 2
			w.apply(context.Background(), next)

			Expect(fake.settings).To(BeEmpty())
			Expect(fake.prompts).To(Equal([]string{"Answer briefly."}))
			Expect(fake.limits).To(Equal([]float64{2}))
		})

		It("keeps the previous section when the provider is rejected", func() {
			fake.updateErr = errors.New("unknown provider")
			w := newConfigWatcher("", current, fake, logger.Nop())
			next := current
			next.Provider = "broken"
			next.SystemPrompt = "ignored"
			w.apply(context.Background(), next)

			Expect(fake.prompts).To(BeEmpty())
			Expect(w.current).To(Equal(current))
		})
	})

	Describe("Run", func() {
		It("applies edits written to config.toml", func() {
			dir := GinkgoT().TempDir()
			w := newConfigWatcher(dir, current, fake, logger.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()
			DeferCleanup(func() {
				cancel()
				Eventually(done).Should(Receive(MatchError(context.Canceled)))
			})

			cfg := config.NewDefaultConfig()
			cfg.Assistant.Provider = "anthropic"
			cfg.Assistant.Model = "claude-3-5-haiku-latest"
			cfg.Assistant.BaseURL = "https://api.anthropic.com"

			cfger, err := config.NewConfiger(dir)
			Expect(err).NotTo(HaveOccurred())

			// The watch is registered asynchronously; rewrite until it lands.
			Eventually(func() []llm.Settings {
				Expect(cfger.SaveConfig(cfg)).To(Succeed())
				return fake.updates()
			}).Should(ContainElement(HaveField("Provider", "anthropic")))
		})

		It("ignores other files in the directory", func() {
			dir := GinkgoT().TempDir()
			w := newConfigWatcher(dir, current, fake, logger.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(cancel)
			go func() { _ = w.Run(ctx) }()

			Expect(os.WriteFile(filepath.Join(dir, "session.json"), []byte("{}"), 0o600)).To(Succeed())
			Consistently(fake.updates, "200ms").Should(BeEmpty())
		})
	})
})
