package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/storage"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
}

// ConversationsResponse lists stored conversations.
type ConversationsResponse struct {
	Conversations []*storage.Conversation `json:"conversations"`
}

// MessagesResponse lists a conversation's messages, oldest first.
type MessagesResponse struct {
	Messages []*storage.Message `json:"messages"`
}

// ProvidersResponse lists the provider presets.
type ProvidersResponse struct {
	Providers []llm.Preset `json:"providers"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	convs, err := s.assistant.Conversations(c.Context())
	if err != nil {
		s.logger.Error("listing conversations failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list conversations"})
	}
	if convs == nil {
		convs = []*storage.Conversation{}
	}

	return c.JSON(ConversationsResponse{Conversations: convs})
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid conversation id"})
	}

	msgs, err := s.assistant.Messages(c.Context(), id)
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: nf.Error()})
		}
		s.logger.Error("listing messages failed", "conversation_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list messages"})
	}
	if msgs == nil {
		msgs = []*storage.Message{}
	}

	return c.JSON(MessagesResponse{Messages: msgs})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Settings())
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var req llm.Settings
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	req.Provider = strings.TrimSpace(req.Provider)
	req.BaseURL = strings.TrimSpace(req.BaseURL)

	if err := s.assistant.UpdateSettings(c.Context(), req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(MessageResponse{Message: "settings updated"})
}

func (s *Server) handleListProviders(c *fiber.Ctx) error {
	return c.JSON(ProvidersResponse{Providers: s.assistant.Presets()})
}
