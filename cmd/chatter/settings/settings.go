// Package settingscmder provides the settings command for viewing and
// changing the provider a chatter backend relays to.
package settingscmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/client"
)

const settingsLongDesc string = `View and change the backend's provider settings.

Changes apply to the running backend immediately and are not written to
config.toml. Use "chatter config set assistant.<key>" to change the
defaults the backend starts with.

Examples:
  chatter settings get
  chatter settings providers
  chatter settings set --provider openai --model gpt-4o-mini
  chatter settings set --base-url https://api.deepseek.com/v1 --api-key sk-...`

const settingsShortDesc string = "View and change backend provider settings"

func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: settingsShortDesc,
		Long:  settingsLongDesc,
	}

	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newProvidersCmd())

	return cmd
}

func newClient(cmd *cobra.Command, opts *clientcmd.Options) (*client.Client, error) {
	cfg, err := opts.Load(cmd)
	if err != nil {
		return nil, err
	}
	return clientcmd.NewClient(cfg, clientcmd.Logger(cmd))
}
