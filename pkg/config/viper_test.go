package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		defaults := config.NewDefaultConfig()
		Expect(cfg.Client).To(Equal(defaults.Client))
		Expect(cfg.Chat).To(Equal(defaults.Chat))
		Expect(cfg.Server).To(Equal(defaults.Server))
		Expect(cfg.Storage).To(Equal(defaults.Storage))
		Expect(cfg.Assistant).To(Equal(defaults.Assistant))
		Expect(cfg.EventStream.Topic).To(Equal(defaults.EventStream.Topic))
		Expect(cfg.EventStream.Brokers).To(BeEmpty())
		Expect(v.GetDuration("client.idle_timeout")).To(Equal(60 * time.Second))
	})

	It("reads config file values over defaults", func() {
		data := `[assistant]
provider = "ollama"
base_url = "http://localhost:11434"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("assistant.provider")).To(Equal("ollama"))
		Expect(v.GetString("assistant.base_url")).To(Equal("http://localhost:11434"))
		Expect(v.GetString("server.listen")).To(Equal(config.NewDefaultConfig().Server.Listen))
	})

	It("env vars take precedence over config file values", func() {
		data := `[assistant]
provider = "ollama"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		GinkgoT().Setenv("CHATTER_ASSISTANT_PROVIDER", "anthropic")
		GinkgoT().Setenv("CHATTER_CHAT_KEEP_PARTIAL", "true")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Assistant.Provider).To(Equal("anthropic"))
		Expect(cfg.Chat.KeepPartial).To(BeTrue())
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[server]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("server.listen")).To(Equal(config.NewDefaultConfig().Server.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagServerTarget, &target)

		f := cmd.Flags().Lookup("server-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("s"))
		Expect(f.Usage).To(Equal("chatter backend URL"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Client.ServerTarget))
	})

	It("AddBoolFlag binds keep-partial", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var keep bool
		config.AddBoolFlag(cmd, config.ClientFlags, config.FlagKeepPartial, &keep)

		f := cmd.Flags().Lookup("keep-partial")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))

		Expect(cmd.Flags().Set("keep-partial", "true")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{config.FlagKeepPartial})
		Expect(v.GetBool("chat.keep_partial")).To(BeTrue())
	})
})
