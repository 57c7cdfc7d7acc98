package chat

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chat-relay-demo/config"
	domain "github.com/example/chat-relay-demo/domain/chat"
)

func (f *fakeConn) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

// recordingSink captures eviction notifications.
type recordingSink struct {
	noopSink
	mu        sync.Mutex
	evictions []domain.User
}

func (r *recordingSink) SessionEvicted(user domain.User, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions = append(r.evictions, user)
}

func (r *recordingSink) evicted() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, len(r.evictions))
	copy(out, r.evictions)
	return out
}

// newHeartbeatManager returns a manager whose monitor goroutine never
// ticks on its own; tests drive checkHeartbeats directly.
func newHeartbeatManager(t *testing.T, sink EventSink) *Manager {
	t.Helper()
	m := NewManager(config.Config{
		MaxHistory:          100,
		HeartbeatInterval:   time.Hour,
		MaxMissedHeartbeats: 3,
	}, nil, sink)
	t.Cleanup(m.Shutdown)
	return m
}

func TestHeartbeat_ProbesAllSessions(t *testing.T) {
	m := newHeartbeatManager(t, nil)
	room, err := m.CreateRoom("Probed", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)

	conn := &fakeConn{}
	m.AddSession(conn, alice.ID, room.ID)

	m.checkHeartbeats()

	sends := conn.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "ping", sends[0])
}

func TestHeartbeat_ThreeStrikesEviction(t *testing.T) {
	sink := &recordingSink{}
	m := newHeartbeatManager(t, sink)
	room, err := m.CreateRoom("Strikes", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)
	_, bob, err := m.JoinRoom(room.ID, "bob", "")
	require.NoError(t, err)

	dead := &fakeConn{fail: true}
	witness := &fakeConn{}
	m.AddSession(dead, alice.ID, room.ID)
	m.AddSession(witness, bob.ID, room.ID)

	// Two failed probes are tolerated
	m.checkHeartbeats()
	m.checkHeartbeats()
	_, stillMember := m.GetUser(alice.ID, room.ID)
	assert.True(t, stillMember, "user evicted before the third missed heartbeat")
	assert.Empty(t, sink.evicted())

	// Third strike evicts
	m.checkHeartbeats()
	_, stillMember = m.GetUser(alice.ID, room.ID)
	assert.False(t, stillMember, "user still a member after the third missed heartbeat")
	assert.True(t, dead.isClosed(), "evicted connection left open")

	require.Len(t, sink.evicted(), 1)
	assert.Equal(t, "alice", sink.evicted()[0].Username)

	// The survivor gets exactly one timeout notice among the probes
	var notices []string
	for _, frame := range witness.sent() {
		if frame == "ping" {
			continue
		}
		notices = append(notices, frame)
	}
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "alice left the room (connection timeout)")
	assert.Contains(t, notices[0], `"type":"userLeft"`)

	// History records the eviction notice too
	history := m.GetHistory(room.ID, 0)
	require.Len(t, history, 1)
	assert.Equal(t, domain.MessageTypeUserLeft, history[0].Type)
	assert.True(t, strings.HasSuffix(history[0].Content, "(connection timeout)"))
}

func TestHeartbeat_SuccessfulProbeResetsCounter(t *testing.T) {
	m := newHeartbeatManager(t, nil)
	room, err := m.CreateRoom("Flaky", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)

	conn := &fakeConn{fail: true}
	m.AddSession(conn, alice.ID, room.ID)

	// Two misses, then the connection recovers
	m.checkHeartbeats()
	m.checkHeartbeats()
	conn.setFail(false)
	m.checkHeartbeats()

	// The counter was reset, so two more misses still do not evict
	conn.setFail(true)
	m.checkHeartbeats()
	m.checkHeartbeats()

	_, stillMember := m.GetUser(alice.ID, room.ID)
	assert.True(t, stillMember, "recovered session evicted by stale strike count")
}

func TestHeartbeat_TouchResetsCounter(t *testing.T) {
	m := newHeartbeatManager(t, nil)
	room, err := m.CreateRoom("Active", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)

	conn := &fakeConn{fail: true}
	m.AddSession(conn, alice.ID, room.ID)

	m.checkHeartbeats()
	m.checkHeartbeats()
	m.Touch(alice.ID, room.ID)
	m.checkHeartbeats()

	_, stillMember := m.GetUser(alice.ID, room.ID)
	assert.True(t, stillMember, "inbound activity did not reset the strike counter")
}

func TestHeartbeat_EvictingLastMemberDeletesRoom(t *testing.T) {
	sink := &recordingSink{}
	m := newHeartbeatManager(t, sink)
	room, err := m.CreateRoom("Doomed", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)

	m.AddSession(&fakeConn{fail: true}, alice.ID, room.ID)

	m.checkHeartbeats()
	m.checkHeartbeats()
	m.checkHeartbeats()

	_, exists := m.GetRoom(room.ID)
	assert.False(t, exists, "room survived eviction of its only member")
	assert.Equal(t, 0, m.SessionCount())
	require.Len(t, sink.evicted(), 1)
}

func TestHeartbeat_ReplacedSessionSkipsStaleProbe(t *testing.T) {
	m := newHeartbeatManager(t, nil)
	room, err := m.CreateRoom("Reconnect", "")
	require.NoError(t, err)
	_, alice, err := m.JoinRoom(room.ID, "alice", "")
	require.NoError(t, err)

	old := &fakeConn{fail: true}
	m.AddSession(old, alice.ID, room.ID)
	m.checkHeartbeats()
	m.checkHeartbeats()

	// Reconnect with a healthy connection; the counter starts over
	fresh := &fakeConn{}
	m.AddSession(fresh, alice.ID, room.ID)
	m.checkHeartbeats()

	_, stillMember := m.GetUser(alice.ID, room.ID)
	assert.True(t, stillMember)
	assert.NotEmpty(t, fresh.sent())
}
