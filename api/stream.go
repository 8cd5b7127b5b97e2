package api

import (
	"context"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatter/pkg/assistant"
	"github.com/papercomputeco/chatter/pkg/chatstream"
)

// handleChatStream relays one chat message and streams the reply as
// chatstream frames: start, content..., then exactly one of error or done.
func (s *Server) handleChatStream(c *fiber.Ctx) error {
	var req chatstream.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: assistant.ErrEmptyMessage.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")

	// io.Pipe gives per-frame backpressure: each write blocks until fasthttp
	// has taken the chunk. A closed reader means the client went away.
	pr, pw := io.Pipe()
	go s.streamChat(req, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamChat(req chatstream.Request, pw *io.PipeWriter) {
	defer pw.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	fw := &frameWriter{w: pw}
	_, conversationID, err := s.assistant.ChatStream(ctx, req.ConversationID, req.Message, assistant.Callbacks{
		OnStart: func(id int64) error {
			return fw.write(chatstream.StartEvent{ConversationID: id})
		},
		OnContent: func(chunk string) error {
			return fw.write(chatstream.ContentEvent{Delta: chunk})
		},
	})

	if fw.err != nil {
		s.logger.Debug("chat stream client disconnected",
			"conversation_id", conversationID,
			"error", fw.err,
		)
		return
	}

	if err != nil {
		s.logger.Warn("chat stream failed",
			"conversation_id", conversationID,
			"error", err,
		)
		_ = fw.write(chatstream.ErrorEvent{Message: err.Error()})
		return
	}

	_ = fw.write(chatstream.DoneEvent{ConversationID: conversationID})
}

// frameWriter writes chatstream frames and remembers the first write error.
type frameWriter struct {
	w   io.Writer
	err error
}

func (f *frameWriter) write(ev chatstream.Event) error {
	if f.err != nil {
		return f.err
	}
	frame, err := chatstream.Frame(ev)
	if err != nil {
		return err
	}
	if _, err := f.w.Write(frame); err != nil {
		f.err = err
	}
	return f.err
}
