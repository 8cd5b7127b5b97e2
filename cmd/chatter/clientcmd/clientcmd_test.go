package clientcmd_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/config"
)

func newCmd(opts *clientcmd.Options, chat bool) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config-dir", "", "")
	opts.AddFlags(cmd, chat)
	return cmd
}

var _ = Describe("Options", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("registers only the server target for non chat commands", func() {
		cmd := newCmd(&clientcmd.Options{}, false)
		Expect(cmd.Flags().Lookup("server-target")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("idle-timeout")).To(BeNil())
	})

	It("registers the chat flags", func() {
		cmd := newCmd(&clientcmd.Options{}, true)
		Expect(cmd.Flags().Lookup("idle-timeout")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("keep-partial")).NotTo(BeNil())
	})

	It("prefers flags over config defaults", func() {
		opts := &clientcmd.Options{}
		cmd := newCmd(opts, true)
		Expect(cmd.Flags().Set("config-dir", dir)).To(Succeed())
		Expect(cmd.Flags().Set("server-target", "http://chat.internal:9000")).To(Succeed())
		Expect(cmd.Flags().Set("keep-partial", "true")).To(Succeed())

		cfg, err := opts.Load(cmd)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Client.ServerTarget).To(Equal("http://chat.internal:9000"))
		Expect(cfg.Chat.KeepPartial).To(BeTrue())
		Expect(cfg.Client.IdleTimeout).To(Equal(config.NewDefaultConfig().Client.IdleTimeout))
	})

	It("builds a client for the configured target", func() {
		cfg := config.NewDefaultConfig()
		cfg.Client.ServerTarget = "http://chat.internal:9000/"

		c, err := clientcmd.NewClient(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.BaseURL()).To(Equal("http://chat.internal:9000"))
	})

	It("rejects an invalid request timeout", func() {
		cfg := config.NewDefaultConfig()
		cfg.Client.RequestTimeout = "whenever"

		_, err := clientcmd.NewClient(cfg, nil)
		Expect(err).To(HaveOccurred())
	})
})
