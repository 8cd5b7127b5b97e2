package chatstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/sse"
)

const readBufSize = 32 * 1024

// Messages used for the ErrorEvent a Session synthesizes itself.
const (
	RequestFailedMessage = "request failed"
	EndedEarlyMessage    = "stream ended before completion"
)

// ErrRequestFailed is wrapped by Opener implementations when the server
// answers with a non-success status.
var ErrRequestFailed = errors.New(RequestFailedMessage)

// Request is the body of one chat stream request. ConversationID is zero to
// start a new conversation.
type Request struct {
	ConversationID int64  `json:"conversation_id"`
	Message        string `json:"message"`
}

// Opener issues a chat stream request and returns the response body.
type Opener interface {
	OpenStream(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Handler receives the events of a session in stream order.
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

func (f HandlerFunc) HandleEvent(ev Event) {
	f(ev)
}

// Config configures a Session.
type Config struct {
	Opener Opener

	// IdleTimeout closes the stream when no bytes arrive for this long.
	// Zero disables the watchdog.
	IdleTimeout time.Duration

	Logger *slog.Logger
}

// Session runs chat stream exchanges against an Opener. A Session holds no
// per-exchange state and may be reused; each Run gets its own decoder and
// framer.
type Session struct {
	opener      Opener
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewSession returns a Session for c.
func NewSession(c *Config) *Session {
	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &Session{
		opener:      c.Opener,
		idleTimeout: c.IdleTimeout,
		logger:      l,
	}
}

// Run performs one exchange. Every event is passed to h synchronously and in
// the order its line appeared in the body. Exactly one terminal event
// (ErrorEvent or DoneEvent) is dispatched unless ctx is cancelled first, in
// which case Run stops dispatching and returns ctx.Err(). Run returns nil
// once a terminal event was dispatched.
func (s *Session) Run(ctx context.Context, req Request, h Handler) error {
	body, err := s.opener.OpenStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrRequestFailed) {
			s.logger.Debug("chat stream request rejected", "error", err)
			h.HandleEvent(ErrorEvent{Message: RequestFailedMessage})
			return nil
		}
		s.logger.Debug("chat stream request failed", "error", err)
		h.HandleEvent(ErrorEvent{Message: err.Error()})
		return nil
	}

	var once sync.Once
	closeBody := func() {
		once.Do(func() { _ = body.Close() })
	}
	defer closeBody()

	stop := context.AfterFunc(ctx, closeBody)
	defer stop()

	var idled atomic.Bool
	var idle *time.Timer
	if s.idleTimeout > 0 {
		idle = time.AfterFunc(s.idleTimeout, func() {
			idled.Store(true)
			closeBody()
		})
		defer idle.Stop()
	}

	st := &stream{
		decoder: sse.NewTextDecoder(),
		framer:  sse.NewLineFramer(),
		ctx:     ctx,
		handler: h,
		session: s,
	}

	buf := make([]byte, readBufSize)
	for {
		n, rerr := body.Read(buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if n > 0 {
			if idle != nil && !idled.Load() {
				idle.Reset(s.idleTimeout)
			}
			if st.feed(buf[:n]) {
				return st.result()
			}
		}

		if rerr == nil {
			continue
		}

		switch {
		case idled.Load():
			s.logger.Debug("chat stream idle", "timeout", s.idleTimeout)
			st.dispatch(ErrorEvent{Message: fmt.Sprintf("stream idle for %s", s.idleTimeout)})
		case errors.Is(rerr, io.EOF):
			if st.flush() {
				return st.result()
			}
			st.dispatch(ErrorEvent{Message: EndedEarlyMessage})
		default:
			s.logger.Debug("chat stream read failed", "error", rerr)
			st.dispatch(ErrorEvent{Message: rerr.Error()})
		}
		return st.result()
	}
}

// handleParseError applies the policy for lines ParseLine rejects:
// truncated payloads are dropped quietly, anything else is logged, and the
// stream continues either way.
func (s *Session) handleParseError(err error) {
	if errors.Is(err, ErrIncompletePayload) {
		s.logger.Debug("dropping incomplete event line", "error", err)
		return
	}
	s.logger.Warn("skipping malformed event line", "error", err)
}

// stream is the per-Run decoding state.
type stream struct {
	decoder *sse.TextDecoder
	framer  *sse.LineFramer
	ctx     context.Context
	handler Handler
	session *Session

	terminated bool
}

// feed decodes one chunk and dispatches the events it completes. It reports
// whether a terminal event has been dispatched or dispatch was cut short by
// cancellation.
func (st *stream) feed(p []byte) bool {
	return st.lines(st.framer.Feed(st.decoder.Decode(p)))
}

// flush drains the decoder, then the framer.
func (st *stream) flush() bool {
	if st.lines(st.framer.Feed(st.decoder.Flush())) {
		return true
	}
	if line, ok := st.framer.Flush(); ok {
		return st.line(line)
	}
	return false
}

func (st *stream) lines(lines []string) bool {
	for _, line := range lines {
		if st.line(line) {
			return true
		}
	}
	return false
}

func (st *stream) line(line string) bool {
	ev, err := ParseLine(line)
	if err != nil {
		st.session.handleParseError(err)
		return false
	}
	if ev == nil {
		return false
	}
	return st.dispatch(ev)
}

// dispatch hands ev to the handler unless the stream already ended.
func (st *stream) dispatch(ev Event) bool {
	if st.terminated || st.ctx.Err() != nil {
		return true
	}
	st.handler.HandleEvent(ev)
	if IsTerminal(ev) {
		st.terminated = true
	}
	return st.terminated
}

func (st *stream) result() error {
	if !st.terminated {
		return st.ctx.Err()
	}
	return nil
}
