// Package clientcmd holds the flag and config wiring shared by commands that
// talk to a running chatter backend.
package clientcmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/client"
	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/logger"
)

// Options are the client flags a command registers.
type Options struct {
	ServerTarget string
	IdleTimeout  string
	KeepPartial  bool

	keys []string
}

// AddFlags registers --server-target on cmd. With chat set it also
// registers --idle-timeout and --keep-partial.
func (o *Options) AddFlags(cmd *cobra.Command, chat bool) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagServerTarget, &o.ServerTarget)
	o.keys = []string{config.FlagServerTarget}

	if chat {
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagIdleTimeout, &o.IdleTimeout)
		config.AddBoolFlag(cmd, config.ClientFlags, config.FlagKeepPartial, &o.KeepPartial)
		o.keys = append(o.keys, config.FlagIdleTimeout, config.FlagKeepPartial)
	}
}

// Load resolves the effective config for cmd: flags over CHATTER_* env over
// config.toml over defaults.
func (o *Options) Load(cmd *cobra.Command) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.ClientFlags, o.keys)

	return config.FromViper(v), nil
}

// Logger returns the CLI logger. Logs go to stderr so they never interleave
// with reply text.
func Logger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
}

// NewClient builds a backend client from cfg.
func NewClient(cfg *config.Config, l *slog.Logger) (*client.Client, error) {
	_, request, err := cfg.Client.Timeouts()
	if err != nil {
		return nil, err
	}

	return client.New(client.Config{
		BaseURL:        cfg.Client.ServerTarget,
		RequestTimeout: request,
		Logger:         l,
	}), nil
}
