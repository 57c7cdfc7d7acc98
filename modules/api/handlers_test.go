package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/modules/chat"
)

// mockChatPort records GetHistory calls and serves canned responses.
type mockChatPort struct {
	mu         sync.Mutex
	gotLimits  []int
	history    []domain.Message
	historyErr error
}

func (p *mockChatPort) CreateRoom(context.Context, string, string) (chat.RoomInfo, error) {
	return chat.RoomInfo{}, nil
}

func (p *mockChatPort) ListRooms(context.Context) ([]chat.RoomInfo, error) { return nil, nil }

func (p *mockChatPort) GetRoom(context.Context, string) (chat.RoomInfo, error) {
	return chat.RoomInfo{}, nil
}

func (p *mockChatPort) JoinRoom(context.Context, string, string, string) (chat.JoinResult, error) {
	return chat.JoinResult{}, nil
}

func (p *mockChatPort) LeaveRoom(context.Context, string, string) (domain.User, bool, error) {
	return domain.User{}, false, nil
}

func (p *mockChatPort) GetUser(context.Context, string, string) (domain.User, error) {
	return domain.User{}, nil
}

func (p *mockChatPort) GetRoomUsers(context.Context, string) ([]domain.User, error) {
	return nil, nil
}

func (p *mockChatPort) GetHistory(_ context.Context, _ string, limit int) ([]domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotLimits = append(p.gotLimits, limit)
	return p.history, p.historyErr
}

func (p *mockChatPort) limits() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.gotLimits))
	copy(out, p.gotLimits)
	return out
}

func newTestApp(port chat.ChatPort) *APIModule {
	m := &APIModule{
		chatPort: port,
		manager:  &mockSessionManager{},
		limiters: newLimiterRegistry(),
		logger:   slog.Default().With("module", "api"),
	}
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})
	m.setupRoutes()
	return m
}

func TestHandleRoomMessages_LimitPassthrough(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{name: "no limit means full buffer", query: "", wantLimit: 0},
		{name: "explicit limit passes through", query: "?limit=25", wantLimit: 25},
		{name: "limit beyond cap passes through for clamping", query: "?limit=500", wantLimit: 500},
		{name: "negative limit normalized to full buffer", query: "?limit=-3", wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &mockChatPort{}
			m := newTestApp(port)

			req := httptest.NewRequest("GET", "/api/rooms/room-1/messages"+tt.query, nil)
			resp, err := m.app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}

			limits := port.limits()
			if len(limits) != 1 {
				t.Fatalf("GetHistory called %d times, want 1", len(limits))
			}
			if limits[0] != tt.wantLimit {
				t.Errorf("GetHistory limit = %d, want %d", limits[0], tt.wantLimit)
			}
		})
	}
}

func TestHandleRoomMessages_ResponseShape(t *testing.T) {
	port := &mockChatPort{history: []domain.Message{
		domain.NewMessage("room-1", "u1", "alice", "hi", domain.MessageTypeChat),
	}}
	m := newTestApp(port)

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/rooms/room-1/messages", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.RoomID != "room-1" || body.Total != 1 || len(body.Messages) != 1 {
		t.Errorf("body = %+v, want one message for room-1", body)
	}
	if body.Messages[0].Content != "hi" {
		t.Errorf("message content = %q, want hi", body.Messages[0].Content)
	}
}

func TestHandleRoomMessages_UnknownRoom(t *testing.T) {
	port := &mockChatPort{historyErr: chat.ErrRoomNotFound}
	m := newTestApp(port)

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/rooms/ghost/messages", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if !body.Error || body.Reason == "" {
		t.Errorf("error body = %+v, want error envelope with a reason", body)
	}
}
