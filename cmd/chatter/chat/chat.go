// Package chatcmder provides the chat command: a line based chat session
// against a running chatter backend.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatter/cmd/chatter/clientcmd"
	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/client"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/dotdir"
	"github.com/papercomputeco/chatter/pkg/utils"
)

type chatCommander struct {
	opts       clientcmd.Options
	resume     bool
	noMarkdown bool
	configDir  string

	in  io.Reader
	out io.Writer

	logger   *slog.Logger
	client   *client.Client
	session  *chatstream.Session
	acc      *conversation.Accumulator
	list     *conversation.List
	dotdir   *dotdir.Manager
	renderer *cliui.MarkdownRenderer

	// ctx is the context run was started with.
	ctx context.Context

	// termWidth is zero when out is not a terminal.
	termWidth int
}

const chatLongDesc string = `Start an interactive chat session with a chatter backend.

Replies stream in as they are generated. Press Ctrl+C while a reply is
streaming to cancel it. Ctrl+D or /exit quits.

Commands:
  /new         Start a new conversation
  /open <id>   Switch to a stored conversation
  /list        List stored conversations
  /exit        Quit

With --resume the session continues the conversation the last chat
session ended on.

Examples:
  chatter chat
  chatter chat --resume
  chatter chat --server-target http://localhost:9000`

const chatShortDesc string = "Interactive chat with a chatter backend"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.logger = clientcmd.Logger(cmd)

			if err := cmder.setup(cmd); err != nil {
				return err
			}
			return cmder.run(cmd.Context())
		},
	}

	cmder.opts.AddFlags(cmd, true)
	cmd.Flags().BoolVar(&cmder.resume, "resume", false, "Continue the conversation the last session ended on")
	cmd.Flags().BoolVar(&cmder.noMarkdown, "no-markdown", false, "Print replies as plain text")

	return cmd
}

func (c *chatCommander) setup(cmd *cobra.Command) error {
	cfg, err := c.opts.Load(cmd)
	if err != nil {
		return err
	}

	c.client, err = clientcmd.NewClient(cfg, c.logger)
	if err != nil {
		return err
	}

	idle, _, err := cfg.Client.Timeouts()
	if err != nil {
		return err
	}

	c.session = chatstream.NewSession(&chatstream.Config{
		Opener:      c.client,
		IdleTimeout: idle,
		Logger:      c.logger,
	})
	c.list = conversation.NewList(c.client, c.logger)
	c.dotdir = dotdir.NewManager()
	c.acc = c.newAccumulator(cfg.Chat.KeepPartial)

	if f, ok := c.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			c.termWidth = w
		}
	}

	if cfg.Chat.Markdown && !c.noMarkdown && c.termWidth > 0 {
		c.renderer, err = cliui.NewMarkdownRenderer(min(c.termWidth, 100))
		if err != nil {
			c.logger.Debug("markdown disabled", "error", err)
		}
	}

	return nil
}

// newAccumulator refreshes the conversation list with the run context
// whenever an exchange lands on a new conversation.
func (c *chatCommander) newAccumulator(keepPartial bool) *conversation.Accumulator {
	return conversation.New(&conversation.Config{
		KeepPartial: keepPartial,
		OnRefresh: func(id int64) {
			ctx := c.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			if err := c.list.Refresh(ctx); err != nil {
				c.logger.Debug("refreshing conversation list failed", "error", err)
			}
			c.saveSession(id)
		},
	})
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx

	fmt.Fprintln(c.out)
	if c.resume {
		if err := c.resumeSession(ctx); err != nil {
			return err
		}
	}
	if c.acc.ConversationID() == 0 {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.NameStyle.Render(c.client.BaseURL()),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.command(ctx, input)
			if err != nil {
				fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
			}
			if quit {
				break
			}
			continue
		}

		if err := c.send(ctx, input); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// command runs a slash command. It reports whether the session should end.
func (c *chatCommander) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/new":
		c.acc.Reset()
		if err := c.dotdir.ClearSession(c.configDir); err != nil {
			c.logger.Debug("clearing session state failed", "error", err)
		}
		fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
		return false, nil

	case "/open":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return false, fmt.Errorf("usage: /open <conversation id>")
		}
		return false, c.open(ctx, id)

	case "/list":
		return false, c.printList(ctx)

	default:
		return false, fmt.Errorf("unknown command %q (try /new, /open <id>, /list, /exit)", name)
	}
}

// send runs one exchange. Ctrl+C cancels the stream without ending the
// session.
func (c *chatCommander) send(ctx context.Context, text string) error {
	req, ok := c.acc.Submit(text)
	if !ok {
		return nil
	}

	streamCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprint(c.out, cliui.AssistantPrompt)

	var streamed strings.Builder
	err := c.session.Run(streamCtx, req, chatstream.HandlerFunc(func(ev chatstream.Event) {
		c.acc.HandleEvent(ev)
		if content, ok := ev.(chatstream.ContentEvent); ok {
			streamed.WriteString(content.Delta)
			fmt.Fprint(c.out, content.Delta)
		}
	}))

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		c.acc.Abort()
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("(cancelled)"))
		return nil
	default:
		return err
	}

	last, ok := c.acc.Last()
	if !ok {
		return nil
	}

	if last.Error {
		if streamed.Len() > 0 {
			fmt.Fprintln(c.out)
		}
		fmt.Fprintf(c.out, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(last.Content))
		if last.Partial != "" {
			fmt.Fprintf(c.out, "%s\n", cliui.DimStyle.Render(last.Partial))
		}
		fmt.Fprintln(c.out)
		return nil
	}

	c.renderFinal(streamed.String(), last.Content)
	c.saveSession(c.acc.ConversationID())
	return nil
}

// renderFinal replaces the raw streamed text with its markdown rendering
// when a renderer is configured.
func (c *chatCommander) renderFinal(streamed, content string) {
	if c.renderer == nil {
		fmt.Fprint(c.out, "\n\n")
		return
	}

	rendered, err := c.renderer.Render(content)
	if err != nil {
		c.logger.Debug("rendering markdown failed", "error", err)
		fmt.Fprint(c.out, "\n\n")
		return
	}

	rows := streamedRows(cliui.AssistantPrompt+streamed, c.termWidth)
	out := termenv.NewOutput(c.out)
	out.ClearLines(rows - 1)
	out.ClearLine()
	fmt.Fprint(c.out, "\r"+cliui.AssistantPrompt+"\n")
	fmt.Fprint(c.out, rendered)
}

func (c *chatCommander) open(ctx context.Context, id int64) error {
	msgs, err := c.client.Messages(ctx, id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("conversation %d not found", id)
		}
		return err
	}

	c.acc.Load(id, msgs)
	c.saveSession(id)

	title := ""
	if _, err := c.list.RefreshIfUnknown(ctx, id); err == nil {
		if s, ok := c.list.Get(id); ok {
			title = s.Title
		}
	}

	fmt.Fprintf(c.out, "  %s Opened %s %s\n\n",
		cliui.SuccessMark,
		cliui.HashStyle.Render(fmt.Sprintf("#%d", id)),
		cliui.DimStyle.Render(fmt.Sprintf("%s (%d messages)", title, len(msgs))),
	)
	for _, m := range msgs {
		c.printMessage(m)
	}
	return nil
}

func (c *chatCommander) resumeSession(ctx context.Context) error {
	state, err := c.dotdir.LoadSession(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}
	if state == nil || state.ConversationID == 0 {
		return nil
	}

	if err := c.open(ctx, state.ConversationID); err != nil {
		fmt.Fprintf(c.out, "  %s could not resume: %v\n", cliui.FailMark, err)
	}
	return nil
}

func (c *chatCommander) saveSession(id int64) {
	if id == 0 {
		return
	}

	state := &dotdir.SessionState{ConversationID: id, UpdatedAt: timeNow()}
	if s, ok := c.list.Get(id); ok {
		state.Title = s.Title
	}
	if err := c.dotdir.SaveSession(state, c.configDir); err != nil {
		c.logger.Debug("saving session state failed", "error", err)
	}
}

func (c *chatCommander) printList(ctx context.Context) error {
	if err := c.list.Refresh(ctx); err != nil {
		return err
	}

	items := c.list.Items()
	if len(items) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No conversations yet."))
		return nil
	}

	for _, s := range items {
		marker := " "
		if s.ID == c.acc.ConversationID() {
			marker = "*"
		}
		fmt.Fprintf(c.out, " %s %s  %s  %s\n",
			marker,
			cliui.HashStyle.Render(fmt.Sprintf("#%-4d", s.ID)),
			cliui.ValueStyle.Render(utils.Truncate(s.Title, 50)),
			cliui.DimStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) printMessage(m conversation.Message) {
	switch m.Role {
	case conversation.RoleUser:
		fmt.Fprintf(c.out, "%s%s\n", cliui.UserPrompt, m.Content)
	default:
		fmt.Fprintf(c.out, "%s%s\n\n", cliui.AssistantPrompt, m.Content)
	}
}
