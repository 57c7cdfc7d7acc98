package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chat-relay-demo/config"
	domain "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/events"
)

// Module owns the chat Manager and exposes its operations as request-reply
// services. It also bridges manager lifecycle notifications onto the
// application event bus.
type Module struct {
	manager  *Manager
	eventBus mono.EventBus
	logger   *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ EventSink                  = (*Module)(nil)
)

// NewModule creates the chat module.
func NewModule(cfg config.Config) *Module {
	m := &Module{
		logger: slog.Default().With("module", "chat"),
	}
	m.manager = NewManager(cfg, m.logger, m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Manager returns the chat manager for collaborators that hold live
// connections (the api module's WebSocket layer). Connections cannot cross
// the JSON request-reply boundary, so this surface is handed over directly.
func (m *Module) Manager() *Manager {
	return m.manager
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomDeletedV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessageSentV1.ToBase(),
		events.SessionEvictedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.handleCreateRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceJoinRoom, json.Unmarshal, json.Marshal, m.handleJoinRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceJoinRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLeaveRoom, json.Unmarshal, json.Marshal, m.handleLeaveRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLeaveRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomUsers, json.Unmarshal, json.Marshal, m.handleRoomUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomUsers, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetHistory, json.Unmarshal, json.Marshal, m.handleGetHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}

	m.logger.Info("registered services",
		"services", []string{
			ServiceCreateRoom, ServiceListRooms, ServiceGetRoom, ServiceJoinRoom,
			ServiceLeaveRoom, ServiceGetUser, ServiceRoomUsers, ServiceGetHistory,
		})
	return nil
}

// Start initializes the module. The heartbeat monitor is started lazily by
// the manager on the first session registration.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("chat module started")
	return nil
}

// Stop cancels the heartbeat monitor and closes all live connections.
func (m *Module) Stop(_ context.Context) error {
	m.manager.Shutdown()
	m.logger.Info("chat module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":    m.manager.RoomCount(),
			"sessions": m.manager.SessionCount(),
		},
	}
}

// EventSink implementation: publish manager notifications on the event bus.
// Publish failures are logged and dropped; events are observability, not
// part of the delivery path.

func (m *Module) RoomCreated(room domain.Room) {
	if m.eventBus == nil {
		return
	}
	err := events.RoomCreatedV1.Publish(m.eventBus, events.RoomCreatedEvent{
		RoomID:      room.ID,
		RoomName:    room.Name,
		HasPassword: room.HasPassword(),
		Timestamp:   room.CreatedAt,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish RoomCreated event", "error", err)
	}
}

func (m *Module) RoomDeleted(room domain.Room) {
	if m.eventBus == nil {
		return
	}
	err := events.RoomDeletedV1.Publish(m.eventBus, events.RoomDeletedEvent{
		RoomID:    room.ID,
		RoomName:  room.Name,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish RoomDeleted event", "error", err)
	}
}

func (m *Module) UserJoined(user domain.User) {
	if m.eventBus == nil {
		return
	}
	err := events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
		RoomID:    user.RoomID,
		UserID:    user.ID,
		Username:  user.Username,
		Timestamp: user.JoinedAt,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish UserJoined event", "error", err)
	}
}

func (m *Module) UserLeft(user domain.User) {
	if m.eventBus == nil {
		return
	}
	err := events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
		RoomID:    user.RoomID,
		UserID:    user.ID,
		Username:  user.Username,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish UserLeft event", "error", err)
	}
}

func (m *Module) MessageSent(msg domain.Message) {
	if m.eventBus == nil {
		return
	}
	err := events.MessageSentV1.Publish(m.eventBus, events.MessageSentEvent{
		MessageID: msg.ID,
		RoomID:    msg.RoomID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Timestamp: msg.Timestamp,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish MessageSent event", "error", err)
	}
}

func (m *Module) SessionEvicted(user domain.User, missed int) {
	if m.eventBus == nil {
		return
	}
	err := events.SessionEvictedV1.Publish(m.eventBus, events.SessionEvictedEvent{
		RoomID:    user.RoomID,
		UserID:    user.ID,
		Username:  user.Username,
		Missed:    missed,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish SessionEvicted event", "error", err)
	}
}
