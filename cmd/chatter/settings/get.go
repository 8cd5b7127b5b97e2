package settingscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/llm"
)

func newGetCmd() *cobra.Command {
	opts := &clientcmd.Options{}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the active provider settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			s, err := c.Settings(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}

func printSettings(w io.Writer, s llm.Settings) {
	fmt.Fprintln(w)
	for _, row := range [][2]string{
		{"provider", s.Provider},
		{"model", s.Model},
		{"base_url", s.BaseURL},
		{"api_key", s.APIKey},
	} {
		value := cliui.ValueStyle.Render(row[1])
		if row[1] == "" {
			value = cliui.DimStyle.Render("<not set>")
		}
		fmt.Fprintf(w, "  %-10s %s\n", cliui.KeyStyle.Render(row[0]), value)
	}
	fmt.Fprintln(w)
}
