package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chat-relay-demo/events"
)

// ServiceStats is the request-reply service name for retrieving stats.
const ServiceStats = "presence-stats"

// Stats is a point-in-time view of chat activity, accumulated from chat
// events since process start.
type Stats struct {
	ActiveRooms   int       `json:"activeRooms"`
	ActiveUsers   int       `json:"activeUsers"`
	RoomsCreated  uint64    `json:"roomsCreated"`
	RoomsDeleted  uint64    `json:"roomsDeleted"`
	Joins         uint64    `json:"joins"`
	Leaves        uint64    `json:"leaves"`
	Messages      uint64    `json:"messages"`
	Evictions     uint64    `json:"evictions"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
}

// StatsRequest is the request for the presence-stats service.
type StatsRequest struct{}

// StatsResponse is the reply from the presence-stats service.
type StatsResponse struct {
	Stats Stats `json:"stats"`
}

// Module consumes chat events and maintains activity counters. It is a
// pure observer: nothing in the delivery path depends on it.
type Module struct {
	mu     sync.Mutex
	stats  Stats
	logger *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the presence module.
func NewModule() *Module {
	return &Module{
		logger: slog.Default().With("module", "presence"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("presence module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()
	m.logger.Info("presence module stopped",
		"joins", stats.Joins, "messages", stats.Messages, "evictions", stats.Evictions)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": stats.ActiveRooms,
			"active_users": stats.ActiveUsers,
			"messages":     stats.Messages,
		},
	}
}

// RegisterServices registers the presence-stats request-reply service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceStats, json.Unmarshal, json.Marshal, m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceStats, err)
	}
	return nil
}

func (m *Module) handleStats(_ context.Context, _ StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StatsResponse{Stats: m.stats}, nil
}

// RegisterEventConsumers subscribes to the chat domain events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomDeletedV1, m.handleRoomDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.SessionEvictedV1, m.handleSessionEvicted, m,
	); err != nil {
		return fmt.Errorf("failed to register SessionEvicted consumer: %w", err)
	}

	m.logger.Info("registered event consumers",
		"events", []string{"RoomCreated", "RoomDeleted", "UserJoined", "UserLeft", "MessageSent", "SessionEvicted"})
	return nil
}

// Event handlers

func (m *Module) handleRoomCreated(_ context.Context, _ events.RoomCreatedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.RoomsCreated++
	m.stats.ActiveRooms++
	return nil
}

func (m *Module) handleRoomDeleted(_ context.Context, _ events.RoomDeletedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.RoomsDeleted++
	if m.stats.ActiveRooms > 0 {
		m.stats.ActiveRooms--
	}
	return nil
}

func (m *Module) handleUserJoined(_ context.Context, _ events.UserJoinedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Joins++
	m.stats.ActiveUsers++
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, _ events.UserLeftEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Leaves++
	if m.stats.ActiveUsers > 0 {
		m.stats.ActiveUsers--
	}
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Messages++
	m.stats.LastMessageAt = event.Timestamp
	return nil
}

func (m *Module) handleSessionEvicted(_ context.Context, _ events.SessionEvictedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Evictions++
	return nil
}
