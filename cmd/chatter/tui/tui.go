// Package tuicmder provides the tui command: a full screen chat view with a
// conversation sidebar.
package tuicmder

import (
	"context"
	"os"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/conversation"
)

const tuiLongDesc string = `Open a full screen chat with a chatter backend.

Keys:
  enter     Send the message, or open the conversation selected in the sidebar
  esc       Cancel the reply being streamed
  tab       Switch focus between the input and the sidebar
  ctrl+n    Start a new conversation
  ctrl+c    Quit`

const tuiShortDesc string = "Full screen chat with a conversation sidebar"

func NewTUICmd() *cobra.Command {
	opts := &clientcmd.Options{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.Load(cmd)
			if err != nil {
				return err
			}

			l := clientcmd.Logger(cmd)
			c, err := clientcmd.NewClient(cfg, l)
			if err != nil {
				return err
			}

			idle, _, err := cfg.Client.Timeouts()
			if err != nil {
				return err
			}

			deps := &deps{
				session: chatstream.NewSession(&chatstream.Config{
					Opener:      c,
					IdleTimeout: idle,
					Logger:      l,
				}),
				list:        conversation.NewList(c, l),
				history:     c,
				keepPartial: cfg.Chat.KeepPartial,
			}
			return run(cmd.Context(), deps)
		},
	}

	opts.AddFlags(cmd, true)

	return cmd
}

func run(ctx context.Context, d *deps) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Force TrueColor so lipgloss does not fall back to no color inside the
	// alt screen.
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	program := bubbletea.NewProgram(newModel(ctx, d),
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}
