package tuicmder

import (
	"context"

	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/conversation"
)

// streamEventMsg carries one session event into the Update loop. gen is the
// generation of the session that produced it; events from an older
// generation are dropped.
type streamEventMsg struct {
	gen int
	ev  chatstream.Event
}

// streamEndMsg is sent once a session's Run returns.
type streamEndMsg struct {
	gen int
	err error
}

type listLoadedMsg struct {
	err error
}

type conversationLoadedMsg struct {
	gen  int
	id   int64
	msgs []conversation.Message
	err  error
}

// startStream runs req on a goroutine. Events are delivered through the
// returned channel, which is closed after the streamEndMsg.
func startStream(ctx context.Context, s *chatstream.Session, req chatstream.Request, gen int) <-chan bubbletea.Msg {
	ch := make(chan bubbletea.Msg, 32)

	send := func(msg bubbletea.Msg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(ch)
		err := s.Run(ctx, req, chatstream.HandlerFunc(func(ev chatstream.Event) {
			send(streamEventMsg{gen: gen, ev: ev})
		}))
		send(streamEndMsg{gen: gen, err: err})
	}()

	return ch
}

// waitForStream reads the next message of a running stream.
func waitForStream(ch <-chan bubbletea.Msg) bubbletea.Cmd {
	return func() bubbletea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func loadListCmd(ctx context.Context, list *conversation.List) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return listLoadedMsg{err: list.Refresh(ctx)}
	}
}

func loadConversationCmd(ctx context.Context, h historyLoader, id int64, gen int) bubbletea.Cmd {
	return func() bubbletea.Msg {
		msgs, err := h.Messages(ctx, id)
		return conversationLoadedMsg{gen: gen, id: id, msgs: msgs, err: err}
	}
}
