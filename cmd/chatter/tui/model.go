package tuicmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/cliui"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/utils"
)

const sidebarWidth = 30

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	roleUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	roleAsstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	sidebarStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(lipgloss.Color("237")).PaddingRight(1)
)

type historyLoader interface {
	Messages(ctx context.Context, conversationID int64) ([]conversation.Message, error)
}

type deps struct {
	session     *chatstream.Session
	list        *conversation.List
	history     historyLoader
	keepPartial bool
}

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

type model struct {
	ctx  context.Context
	deps *deps
	acc  *conversation.Accumulator

	// refresh is set by the accumulator when an exchange moved to a
	// conversation the sidebar may not list yet.
	refresh *bool

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	focus  focus
	cursor int
	width  int
	height int
	status string

	// gen identifies the current session; it changes whenever a stream
	// starts or is abandoned.
	gen    int
	cancel context.CancelFunc
	stream <-chan bubbletea.Msg
}

func newModel(ctx context.Context, d *deps) model {
	refresh := new(bool)

	ti := textinput.New()
	ti.Placeholder = "Send a message"
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	return model{
		ctx:  ctx,
		deps: d,
		acc: conversation.New(&conversation.Config{
			KeepPartial: d.keepPartial,
			OnRefresh:   func(int64) { *refresh = true },
		}),
		refresh:  refresh,
		keys:     defaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
	}
}

func (m model) Init() bubbletea.Cmd {
	return bubbletea.Batch(textinput.Blink, m.spinner.Tick, loadListCmd(m.ctx, m.deps.list))
}

func (m model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case bubbletea.KeyMsg:
		return m.handleKey(msg)

	case streamEventMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.acc.HandleEvent(msg.ev)
		m.refreshView()

		cmds := []bubbletea.Cmd{waitForStream(m.stream)}
		if *m.refresh {
			*m.refresh = false
			cmds = append(cmds, loadListCmd(m.ctx, m.deps.list))
		}
		return m, bubbletea.Batch(cmds...)

	case streamEndMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.release()
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.status = msg.err.Error()
		}
		m.refreshView()
		return m, nil

	case listLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.cursor = clamp(m.cursor, len(m.deps.list.Items()))
		return m, nil

	case conversationLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.status = fmt.Sprintf("could not open conversation %d: %v", msg.id, msg.err)
			return m, nil
		}
		m.acc.Load(msg.id, msg.msgs)
		m.status = ""
		m.setFocus(focusInput)
		m.refreshView()
		return m, nil

	case spinner.TickMsg:
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.abandon()
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.acc.Phase().InFlight() {
			m.abandon()
			m.acc.Abort()
			m.status = "reply cancelled"
			m.refreshView()
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.abandon()
		m.acc.Reset()
		m.status = "new conversation"
		m.setFocus(focusInput)
		m.refreshView()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.setFocus(focusSidebar)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch msg.String() {
	case "enter":
		return m.submit()
	case "pgup", "pgdown":
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleSidebarKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	items := m.deps.list.Items()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(items))
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(items))
	case key.Matches(msg, m.keys.Send):
		if len(items) == 0 {
			return m, nil
		}
		m.abandon()
		m.acc.Abort()
		m.status = "loading…"
		return m, loadConversationCmd(m.ctx, m.deps.history, items[m.cursor].ID, m.gen)
	}
	return m, nil
}

// submit starts an exchange for the input text. A message typed while a
// reply is streaming is refused and left in the input.
func (m model) submit() (bubbletea.Model, bubbletea.Cmd) {
	req, ok := m.acc.Submit(m.input.Value())
	if !ok {
		if m.acc.Phase().InFlight() {
			m.status = "wait for the reply to finish (esc cancels)"
		}
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	m.gen++

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.stream = startStream(ctx, m.deps.session, req, m.gen)
	m.refreshView()

	return m, waitForStream(m.stream)
}

// abandon cancels the running stream, if any, and invalidates every message
// it may still deliver.
func (m *model) abandon() {
	m.release()
	m.gen++
}

func (m *model) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stream = nil
}

func (m *model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := width
	if width >= 2*sidebarWidth {
		mainWidth = width - sidebarWidth - 2
	}

	m.viewport.Width = max(mainWidth, 10)
	m.viewport.Height = max(height-4, 3)
	m.input.Width = max(width-4, 10)
	m.help.Width = width
	m.refreshView()
}

func (m *model) refreshView() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m model) renderMessages() string {
	width := max(m.viewport.Width-2, 10)
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, msg := range m.acc.Messages() {
		switch {
		case msg.Role == conversation.RoleUser:
			b.WriteString(roleUserStyle.Render("you") + "\n")
			b.WriteString(body.Render(msg.Content) + "\n\n")
		case msg.Error:
			b.WriteString(roleAsstStyle.Render("assistant") + "\n")
			if msg.Partial != "" {
				b.WriteString(mutedStyle.Width(width).Render(msg.Partial) + "\n")
			}
			b.WriteString(cliui.FailMark + " " + cliui.ErrorStyle.Width(width-2).Render(msg.Content) + "\n\n")
		default:
			b.WriteString(roleAsstStyle.Render("assistant") + "\n")
			b.WriteString(body.Render(msg.Content) + "\n\n")
		}
	}

	if m.acc.Phase().InFlight() {
		b.WriteString(roleAsstStyle.Render("assistant") + "\n")
		if text := m.acc.Streaming(); text != "" {
			b.WriteString(body.Render(text))
		} else {
			b.WriteString(mutedStyle.Render("thinking…"))
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return mutedStyle.Render("New conversation. Type a message and press enter.")
	}
	return b.String()
}

func (m model) View() string {
	main := m.viewport.View()
	if m.width >= 2*sidebarWidth {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		main,
		m.viewStatus(),
		m.input.View(),
		m.help.View(m.keys),
	)
}

func (m model) viewSidebar() string {
	height := max(m.viewport.Height, 3)
	lines := []string{titleStyle.Render("Conversations")}

	items := m.deps.list.Items()
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("none yet"))
	}

	start, end := visibleRange(len(items), m.cursor, height-1)
	for i := start; i < end; i++ {
		s := items[i]
		label := utils.Truncate(fmt.Sprintf("#%d %s", s.ID, s.Title), sidebarWidth-2)
		switch {
		case m.focus == focusSidebar && i == m.cursor:
			label = highlightStyle.Render(label)
		case s.ID == m.acc.ConversationID():
			label = activeStyle.Render(label)
		}
		lines = append(lines, label)
	}

	return sidebarStyle.Width(sidebarWidth).Height(height).Render(strings.Join(lines, "\n"))
}

func (m model) viewStatus() string {
	var parts []string
	if m.acc.Phase().InFlight() {
		parts = append(parts, m.spinner.View()+" "+m.acc.Phase().String())
	}
	if id := m.acc.ConversationID(); id != 0 {
		parts = append(parts, cliui.HashStyle.Render(fmt.Sprintf("#%d", id)))
	}
	if m.status != "" {
		parts = append(parts, mutedStyle.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func clamp(value, n int) int {
	if n <= 0 || value < 0 {
		return 0
	}
	if value >= n {
		return n - 1
	}
	return value
}

// visibleRange returns the window of size items around cursor.
func visibleRange(total, cursor, size int) (int, int) {
	if size <= 0 || total <= size {
		return 0, total
	}
	start := cursor - size/2
	start = max(start, 0)
	start = min(start, total-size)
	return start, start + size
}
