package chat

import (
	"context"
	"time"

	domain "github.com/example/chat-relay-demo/domain/chat"
)

// probeFrame is the literal text sent as a liveness probe. Clients treat
// "ping"/"pong" frames as control traffic, never as chat content.
const probeFrame = "ping"

// runHeartbeatMonitor probes every registered session once per interval
// until the context is cancelled. Eviction is a three-strikes policy: a
// single failed probe only increments the session's counter, so brief
// transport hiccups are tolerated; any successful probe resets it.
func (m *Manager) runHeartbeatMonitor(ctx context.Context) {
	defer close(m.monitorDone)

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("heartbeat monitor stopped")
			return
		case <-ticker.C:
			m.checkHeartbeats()
		}
	}
}

type probeTarget struct {
	key  sessionKey
	conn Connection
}

// checkHeartbeats snapshots the session table, probes each connection
// outside the state lock, and updates counters afterwards. Sessions whose
// counter crosses the threshold are evicted.
func (m *Manager) checkHeartbeats() {
	m.mu.Lock()
	targets := make([]probeTarget, 0, len(m.sessions))
	for key, s := range m.sessions {
		targets = append(targets, probeTarget{key: key, conn: s.conn})
	}
	m.mu.Unlock()

	for _, t := range targets {
		err := t.conn.Send(probeFrame)

		m.mu.Lock()
		s, ok := m.sessions[t.key]
		if !ok || s.conn != t.conn {
			// Session was removed or replaced since the snapshot.
			m.mu.Unlock()
			continue
		}
		if err == nil {
			s.missed = 0
			m.mu.Unlock()
			continue
		}
		s.missed++
		missed := s.missed
		m.mu.Unlock()

		if missed >= m.maxMissed {
			m.evict(t, missed)
		}
	}
}

// evict closes the connection, removes the user from its room, and
// broadcasts a timeout notice if a user was actually removed.
func (m *Manager) evict(t probeTarget, missed int) {
	m.logger.Warn("session failed heartbeats, evicting",
		"roomId", t.key.roomID, "userId", t.key.userID, "missed", missed)

	_ = t.conn.Close()

	user, ok := m.LeaveRoom(t.key.roomID, t.key.userID)
	if !ok {
		return
	}
	m.sink.SessionEvicted(user, missed)

	notice := domain.NewMessage(
		t.key.roomID,
		user.ID,
		user.Username,
		user.Username+" left the room (connection timeout)",
		domain.MessageTypeUserLeft,
	)
	m.Broadcast(notice, t.key.roomID, "")
}
