// Package configcmder provides the config command for managing persistent
// chatter configuration stored in the .chatter/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/llm"
)

const configLongDesc string = `Manage persistent chatter configuration.

Configuration is stored as config.toml in the .chatter/ directory and provides
default values for command flags. CLI flags and CHATTER_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.server_target, client.idle_timeout, client.request_timeout,
  chat.keep_partial, chat.markdown,
  server.listen,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  assistant.provider, assistant.model, assistant.base_url, assistant.api_key,
  assistant.system_prompt, assistant.rate_limit, assistant.rate_burst,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  chatter config set <key> <value>    Set a configuration value
  chatter config get <key>            Get a configuration value
  chatter config list                 List all configuration values

Examples:
  chatter config set assistant.provider anthropic
  chatter config set chat.keep_partial true
  chatter config get client.server_target
  chatter config list`

const configShortDesc string = "Manage persistent chatter configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// displayValue masks secret values for printing.
func displayValue(key, value string) string {
	if config.IsSecretKey(key) {
		return llm.MaskKey(value)
	}
	return value
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
