package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatter/pkg/assistant"
	"github.com/papercomputeco/chatter/pkg/logger"
)

// Server is the API server for chatting and managing conversations.
type Server struct {
	config    Config
	assistant *assistant.Service
	logger    *slog.Logger
	app       *fiber.App

	// ctx bounds in-flight chat streams; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server backed by svc.
func NewServer(config Config, svc *assistant.Service, l *slog.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:    config,
		assistant: svc,
		logger:    l,
		app:       app,
		ctx:       ctx,
		cancel:    cancel,
	}

	app.Get("/health", s.handleHealth)

	r := app.Group("/api")
	r.Post("/chat/stream", s.handleChatStream)
	r.Get("/conversations", s.handleListConversations)
	r.Get("/conversations/:id/messages", s.handleListMessages)
	r.Get("/settings", s.handleGetSettings)
	r.Post("/settings", s.handleUpdateSettings)
	r.Get("/providers", s.handleListProviders)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown cancels in-flight streams and gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
