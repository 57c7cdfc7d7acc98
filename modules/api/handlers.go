package api

import (
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/chat-relay-demo/modules/chat"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	m.app.Get("/health", m.handleHealth)

	api := m.app.Group("/api")
	api.Get("/stats", m.handleStats)
	api.Get("/rooms", m.handleListRooms)
	api.Post("/rooms", m.handleCreateRoom)
	api.Get("/rooms/:roomId", m.handleGetRoom)
	api.Post("/rooms/:roomId/join", m.handleJoinRoom)
	api.Delete("/rooms/:roomId/leave/:userId", m.handleLeaveRoom)
	api.Get("/rooms/:roomId/users", m.handleRoomUsers)
	api.Get("/rooms/:roomId/messages", m.handleRoomMessages)

	// WebSocket upgrade gate
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws/:roomId/:userId", websocket.New(m.handleWebSocket))
}

// handleHealth handles GET /health.
func (m *APIModule) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "ok",
		Uptime: time.Since(m.startedAt).Round(time.Second).String(),
	})
}

// handleStats handles GET /api/stats.
func (m *APIModule) handleStats(c *fiber.Ctx) error {
	if m.presence == nil {
		return fiber.ErrServiceUnavailable
	}
	stats, err := m.presence.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// handleListRooms handles GET /api/rooms.
func (m *APIModule) handleListRooms(c *fiber.Ctx) error {
	rooms, err := m.chatPort.ListRooms(c.UserContext())
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(RoomListResponse{Rooms: rooms, Total: len(rooms)})
}

// handleCreateRoom handles POST /api/rooms.
func (m *APIModule) handleCreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  true,
			Reason: "Invalid request body",
		})
	}

	room, err := m.chatPort.CreateRoom(c.UserContext(), req.Name, req.Password)
	if err != nil {
		return m.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// handleGetRoom handles GET /api/rooms/:roomId.
func (m *APIModule) handleGetRoom(c *fiber.Ctx) error {
	room, err := m.chatPort.GetRoom(c.UserContext(), c.Params("roomId"))
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(room)
}

// handleJoinRoom handles POST /api/rooms/:roomId/join.
func (m *APIModule) handleJoinRoom(c *fiber.Ctx) error {
	var req JoinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:  true,
			Reason: "Invalid request body",
		})
	}

	result, err := m.chatPort.JoinRoom(c.UserContext(), c.Params("roomId"), req.Username, req.Password)
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(JoinRoomResponse{
		User:  toUserResponse(result.User),
		Room:  result.Room,
		Users: toUserResponses(result.Users),
	})
}

// handleLeaveRoom handles DELETE /api/rooms/:roomId/leave/:userId.
func (m *APIModule) handleLeaveRoom(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	userID := c.Params("userId")

	_, removed, err := m.chatPort.LeaveRoom(c.UserContext(), roomID, userID)
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(LeaveResponse{Success: removed})
}

// handleRoomUsers handles GET /api/rooms/:roomId/users.
func (m *APIModule) handleRoomUsers(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	users, err := m.chatPort.GetRoomUsers(c.UserContext(), roomID)
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(RoomUsersResponse{RoomID: roomID, Users: toUserResponses(users)})
}

// handleRoomMessages handles GET /api/rooms/:roomId/messages.
func (m *APIModule) handleRoomMessages(c *fiber.Ctx) error {
	roomID := c.Params("roomId")

	// Absent limit means the full retained buffer, so late joiners catch
	// up on everything. Oversized values are clamped against the buffer.
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}

	messages, err := m.chatPort.GetHistory(c.UserContext(), roomID, limit)
	if err != nil {
		return m.mapError(c, err)
	}
	return c.JSON(HistoryResponse{RoomID: roomID, Messages: messages, Total: len(messages)})
}

// mapError translates chat errors to HTTP status codes.
func (m *APIModule) mapError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, chat.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, chat.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, chat.ErrConflict):
		status = fiber.StatusConflict
	default:
		m.logger.Error("unexpected error", "path", c.Path(), "error", err)
		return c.Status(status).JSON(ErrorResponse{Error: true, Reason: "Internal Server Error"})
	}
	return c.Status(status).JSON(ErrorResponse{Error: true, Reason: err.Error()})
}
