package presence

import (
	"context"
	"testing"
	"time"

	"github.com/example/chat-relay-demo/events"
)

func TestModule_Counters(t *testing.T) {
	m := NewModule()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := m.handleRoomCreated(ctx, events.RoomCreatedEvent{}, nil); err != nil {
			t.Fatalf("handleRoomCreated() error: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := m.handleUserJoined(ctx, events.UserJoinedEvent{}, nil); err != nil {
			t.Fatalf("handleUserJoined() error: %v", err)
		}
	}
	sentAt := time.Now()
	if err := m.handleMessageSent(ctx, events.MessageSentEvent{Timestamp: sentAt}, nil); err != nil {
		t.Fatalf("handleMessageSent() error: %v", err)
	}
	if err := m.handleUserLeft(ctx, events.UserLeftEvent{}, nil); err != nil {
		t.Fatalf("handleUserLeft() error: %v", err)
	}
	if err := m.handleSessionEvicted(ctx, events.SessionEvictedEvent{}, nil); err != nil {
		t.Fatalf("handleSessionEvicted() error: %v", err)
	}
	if err := m.handleRoomDeleted(ctx, events.RoomDeletedEvent{}, nil); err != nil {
		t.Fatalf("handleRoomDeleted() error: %v", err)
	}

	resp, err := m.handleStats(ctx, StatsRequest{}, nil)
	if err != nil {
		t.Fatalf("handleStats() error: %v", err)
	}

	stats := resp.Stats
	if stats.RoomsCreated != 2 || stats.RoomsDeleted != 1 || stats.ActiveRooms != 1 {
		t.Errorf("room counters = created %d, deleted %d, active %d; want 2, 1, 1",
			stats.RoomsCreated, stats.RoomsDeleted, stats.ActiveRooms)
	}
	if stats.Joins != 3 || stats.Leaves != 1 || stats.ActiveUsers != 2 {
		t.Errorf("user counters = joins %d, leaves %d, active %d; want 3, 1, 2",
			stats.Joins, stats.Leaves, stats.ActiveUsers)
	}
	if stats.Messages != 1 || !stats.LastMessageAt.Equal(sentAt) {
		t.Errorf("message counters = %d at %v; want 1 at %v", stats.Messages, stats.LastMessageAt, sentAt)
	}
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestModule_CountersNeverNegative(t *testing.T) {
	m := NewModule()
	ctx := context.Background()

	// Leave and delete without prior join/create must not underflow
	_ = m.handleUserLeft(ctx, events.UserLeftEvent{}, nil)
	_ = m.handleRoomDeleted(ctx, events.RoomDeletedEvent{}, nil)

	resp, err := m.handleStats(ctx, StatsRequest{}, nil)
	if err != nil {
		t.Fatalf("handleStats() error: %v", err)
	}
	if resp.Stats.ActiveUsers != 0 || resp.Stats.ActiveRooms != 0 {
		t.Errorf("active counters went negative: users %d, rooms %d",
			resp.Stats.ActiveUsers, resp.Stats.ActiveRooms)
	}
}
