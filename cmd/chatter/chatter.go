// Package chattercmder is the root of the chatter command tree.
package chattercmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/chatter/cmd/chatter/chat"
	configcmder "github.com/papercomputeco/chatter/cmd/chatter/config"
	conversationscmder "github.com/papercomputeco/chatter/cmd/chatter/conversations"
	servecmder "github.com/papercomputeco/chatter/cmd/chatter/serve"
	settingscmder "github.com/papercomputeco/chatter/cmd/chatter/settings"
	tuicmder "github.com/papercomputeco/chatter/cmd/chatter/tui"
	versioncmder "github.com/papercomputeco/chatter/cmd/chatter/version"
)

const chatterLongDesc string = `Chatter is a streaming chat client and the backend it talks to.

Chat from the terminal:
  chatter chat           Line based chat session
  chatter tui            Full screen chat with a conversation sidebar

Run the backend:
  chatter serve          Run the API server`

const chatterShortDesc string = "Chatter - streaming LLM chat"

func NewChatterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatter",
		Short:         chatterShortDesc,
		Long:          chatterLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .chatter/ config directory")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(settingscmder.NewSettingsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
