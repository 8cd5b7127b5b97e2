package settingscmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/cliui"
)

type setCommander struct {
	provider string
	model    string
	baseURL  string
	apiKey   string
	noKey    bool
}

func newSetCmd() *cobra.Command {
	opts := &clientcmd.Options{}
	cmder := &setCommander{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Switch the backend to new provider settings",
		Long: `Switch the backend to new provider settings.

Fields not given keep their current value. Without --api-key the key is
read from stdin: hidden when stdin is a terminal, the first line when it is
piped. An empty answer keeps the current key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			next, err := c.Settings(ctx)
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			if cmder.provider != "" {
				next.Provider = cmder.provider
			}
			if cmder.model != "" {
				next.Model = cmder.model
			}
			if cmder.baseURL != "" {
				next.BaseURL = cmder.baseURL
			}

			switch {
			case cmd.Flags().Changed("api-key"):
				next.APIKey = cmder.apiKey
			case !cmder.noKey:
				// The masked key sent back unchanged keeps the current key.
				key, err := readAPIKey(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if key != "" {
					next.APIKey = key
				}
			}

			var msg string
			fmt.Fprintln(cmd.OutOrStdout())
			step := fmt.Sprintf("Switching to %s (%s)", next.Provider, next.Model)
			err = cliui.Step(cmd.OutOrStdout(), step, func() error {
				var err error
				msg, err = c.UpdateSettings(ctx, next)
				return err
			})
			if err != nil {
				return fmt.Errorf("updating settings: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cliui.DimStyle.Render(msg))
			printSettings(cmd.OutOrStdout(), next.Masked())
			return nil
		},
	}

	opts.AddFlags(cmd, false)
	cmd.Flags().StringVarP(&cmder.provider, "provider", "p", "", "Provider name (openai, anthropic, ollama, deepseek, ...)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Provider API base URL")
	cmd.Flags().StringVar(&cmder.apiKey, "api-key", "", "Provider API key, or an ssm:/path reference")
	cmd.Flags().BoolVar(&cmder.noKey, "keep-key", false, "Keep the current API key without prompting")

	return cmd
}

// readAPIKey reads an API key from in. If in is a terminal the key is read
// with echo disabled; otherwise the first line is used.
func readAPIKey(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "API key (empty keeps the current key): ")
		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", nil
}
