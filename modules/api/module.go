package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/chat-relay-demo/config"
	"github.com/example/chat-relay-demo/modules/chat"
)

// APIModule exposes the REST API and the WebSocket endpoint over Fiber.
//
// Room and membership operations go through the chat service container
// (request-reply). Live connection plumbing (session registration,
// broadcast, heartbeat touch) talks to the chat Manager directly, since
// connections cannot cross a JSON service boundary.
type APIModule struct {
	app       *fiber.App
	cfg       config.Config
	chatPort  chat.ChatPort
	manager   sessionManager
	presence  *presenceAdapter
	limiters  *limiterRegistry
	logger    *slog.Logger
	startedAt time.Time
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(cfg config.Config) *APIModule {
	return &APIModule{
		cfg:      cfg,
		limiters: newLimiterRegistry(),
		logger:   slog.Default().With("module", "api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"chat", "presence"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "chat":
		m.chatPort = chat.NewChatAdapter(container)
	case "presence":
		m.presence = newPresenceAdapter(container)
	}
}

// SetManager wires the chat Manager for connection-level operations.
// Called from main.go after module construction.
func (m *APIModule) SetManager(manager *chat.Manager) {
	m.manager = manager
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.chatPort == nil {
		return fmt.Errorf("chat dependency not set")
	}
	if m.manager == nil {
		return fmt.Errorf("chat manager not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "chat-relay-demo",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(m.requestLogger())
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.CORSAllowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()
	m.startedAt = time.Now()

	// Catch immediate startup errors (port in use) before reporting success
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.cfg.Port); err != nil {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "port", m.cfg.Port)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":     m.cfg.Port,
			"sessions": m.manager.SessionCount(),
		},
	}
}

// errorHandler handles Fiber errors globally.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	reason := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		reason = e.Message
	}

	m.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)

	return c.Status(code).JSON(ErrorResponse{Error: true, Reason: reason})
}

// requestLogger logs completed HTTP requests. WebSocket upgrades are
// skipped; the connection lifecycle is logged separately.
func (m *APIModule) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		m.logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
		)
		return err
	}
}
