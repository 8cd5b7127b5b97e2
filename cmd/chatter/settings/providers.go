package settingscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/cliui"
)

func newProvidersCmd() *cobra.Command {
	opts := &clientcmd.Options{}

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the provider presets the backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			presets, err := c.Providers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing providers: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			for _, p := range presets {
				fmt.Fprintf(w, "  %s  %s\n",
					cliui.NameStyle.Render(p.Name),
					cliui.DimStyle.Render(p.BaseURL),
				)
				if len(p.Models) > 0 {
					fmt.Fprintf(w, "    %s\n", cliui.ValueStyle.Render(strings.Join(p.Models, ", ")))
				}
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}
