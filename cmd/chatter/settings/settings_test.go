package settingscmder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	settingscmder "github.com/papercomputeco/chatter/cmd/chatter/settings"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/llm"
	testutils "github.com/papercomputeco/chatter/pkg/utils/test"
)

var _ = Describe("Settings command", func() {
	var (
		backend *testutils.FakeBackend
		out     *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		root := &cobra.Command{Use: "chatter"}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		root.AddCommand(settingscmder.NewSettingsCmd())

		out = &bytes.Buffer{}
		root.SetIn(strings.NewReader(stdin))
		root.SetOut(out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append(append([]string{"settings"}, args...), "--server-target", backend.URL()))
		return root.Execute()
	}

	BeforeEach(func() {
		backend = testutils.NewFakeBackend()
		DeferCleanup(backend.Server.Close)
	})

	It("shows the active settings with the key masked", func() {
		Expect(run("", "get")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("gpt-4o-mini"))
		Expect(out.String()).To(ContainSubstring("sk-1****cdef"))
	})

	It("lists provider presets", func() {
		Expect(run("", "providers")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("DeepSeek"))
		Expect(out.String()).To(ContainSubstring("deepseek-chat"))
	})

	Describe("set", func() {
		It("keeps unspecified fields and the current key on an empty answer", func() {
			Expect(run("\n", "set", "--model", "gpt-4o")).To(Succeed())

			updates := backend.ReceivedUpdates()
			Expect(updates).To(HaveLen(1))
			Expect(updates[0]).To(Equal(llm.Settings{
				Provider: "openai",
				Model:    "gpt-4o",
				BaseURL:  "https://api.openai.com/v1",
				APIKey:   "sk-1****cdef",
			}))
			Expect(out.String()).To(ContainSubstring("Switching to openai (gpt-4o)"))
			Expect(out.String()).To(ContainSubstring(cliui.SuccessMark))
			Expect(out.String()).To(ContainSubstring("settings updated"))
		})

		It("reads a new key from piped stdin", func() {
			Expect(run("sk-piped-key-0001\n", "set", "--provider", "deepseek", "--base-url", "https://api.deepseek.com/v1")).To(Succeed())

			updates := backend.ReceivedUpdates()
			Expect(updates).To(HaveLen(1))
			Expect(updates[0].APIKey).To(Equal("sk-piped-key-0001"))
			Expect(updates[0].Provider).To(Equal("deepseek"))
			Expect(out.String()).NotTo(ContainSubstring("sk-piped-key-0001"))
		})

		It("takes the key from the flag without prompting", func() {
			Expect(run("ignored\n", "set", "--api-key", "ssm:/chatter/openai")).To(Succeed())
			Expect(backend.ReceivedUpdates()[0].APIKey).To(Equal("ssm:/chatter/openai"))
		})

		It("skips the prompt with --keep-key", func() {
			Expect(run("sk-should-not-be-read\n", "set", "--keep-key", "--model", "gpt-4")).To(Succeed())
			Expect(backend.ReceivedUpdates()[0].APIKey).To(Equal("sk-1****cdef"))
		})
	})
})
