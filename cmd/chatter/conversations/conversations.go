// Package conversationscmder provides the conversations command for browsing
// stored conversations on a chatter backend.
package conversationscmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/client"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/utils"
)

const conversationsLongDesc string = `Browse stored conversations.

Examples:
  chatter conversations list
  chatter conversations show 12`

const conversationsShortDesc string = "Browse stored conversations"

func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"convs"},
		Short:   conversationsShortDesc,
		Long:    conversationsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	opts := &clientcmd.Options{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			items, err := c.ListConversations(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing conversations: %w", err)
			}

			printList(cmd.OutOrStdout(), items)
			return nil
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}

func newShowCmd() *cobra.Command {
	opts := &clientcmd.Options{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid conversation id %q", args[0])
			}

			c, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			msgs, err := c.Messages(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("conversation %d not found", id)
				}
				return fmt.Errorf("loading conversation: %w", err)
			}

			printMessages(cmd.OutOrStdout(), id, msgs)
			return nil
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}

func newClient(cmd *cobra.Command, opts *clientcmd.Options) (*client.Client, error) {
	cfg, err := opts.Load(cmd)
	if err != nil {
		return nil, err
	}
	return clientcmd.NewClient(cfg, clientcmd.Logger(cmd))
}

func printList(w io.Writer, items []conversation.Summary) {
	if len(items) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No conversations yet."))
		return
	}

	fmt.Fprintln(w)
	for _, s := range items {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			cliui.HashStyle.Render(fmt.Sprintf("#%-4d", s.ID)),
			cliui.ValueStyle.Render(utils.Truncate(s.Title, 60)),
			cliui.DimStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(w)
}

func printMessages(w io.Writer, id int64, msgs []conversation.Message) {
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Conversation"),
		cliui.HashStyle.Render(fmt.Sprintf("#%d", id)),
	)

	for _, m := range msgs {
		prompt := cliui.AssistantPrompt
		if m.Role == conversation.RoleUser {
			prompt = cliui.UserPrompt
		}
		fmt.Fprintf(w, "%s%s\n\n", prompt, m.Content)
	}
}
