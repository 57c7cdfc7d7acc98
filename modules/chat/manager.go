package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/example/chat-relay-demo/config"
	domain "github.com/example/chat-relay-demo/domain/chat"
)

// EventSink receives lifecycle notifications from the Manager. The chat
// module bridges these onto the application event bus.
type EventSink interface {
	RoomCreated(room domain.Room)
	RoomDeleted(room domain.Room)
	UserJoined(user domain.User)
	UserLeft(user domain.User)
	MessageSent(msg domain.Message)
	SessionEvicted(user domain.User, missed int)
}

type noopSink struct{}

func (noopSink) RoomCreated(domain.Room)         {}
func (noopSink) RoomDeleted(domain.Room)         {}
func (noopSink) UserJoined(domain.User)          {}
func (noopSink) UserLeft(domain.User)            {}
func (noopSink) MessageSent(domain.Message)      {}
func (noopSink) SessionEvicted(domain.User, int) {}

// Manager is the single authority over rooms, message history and live
// sessions. One mutex serializes every mutation so multi-field invariants
// (username uniqueness, the history cap, empty-room deletion) are checked
// and updated atomically. Connection I/O is never performed under that
// lock: broadcasts and heartbeat probes snapshot the connections first.
type Manager struct {
	mu       sync.Mutex
	rooms    map[string]*domain.Room
	history  map[string][]domain.Message
	sessions map[sessionKey]*session

	// broadcastMu serializes fan-out so delivery order matches history
	// order without holding the state lock during sends.
	broadcastMu sync.Mutex

	maxHistory        int
	heartbeatInterval time.Duration
	maxMissed         int

	sink   EventSink
	logger *slog.Logger

	monitorOnce    sync.Once
	monitorStarted bool
	monitorCtx     context.Context
	monitorCancel  context.CancelFunc
	monitorDone    chan struct{}
}

// NewManager creates a Manager. A nil sink disables event notifications.
func NewManager(cfg config.Config, logger *slog.Logger, sink EventSink) *Manager {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 100
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 10 * time.Second
	}
	if cfg.MaxMissedHeartbeats <= 0 {
		cfg.MaxMissedHeartbeats = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = noopSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		rooms:             make(map[string]*domain.Room),
		history:           make(map[string][]domain.Message),
		sessions:          make(map[sessionKey]*session),
		maxHistory:        cfg.MaxHistory,
		heartbeatInterval: cfg.HeartbeatInterval,
		maxMissed:         cfg.MaxMissedHeartbeats,
		sink:              sink,
		logger:            logger,
		monitorCtx:        ctx,
		monitorCancel:     cancel,
		monitorDone:       make(chan struct{}),
	}
}

// CreateRoom creates a room with a trimmed name and an optional password.
// Non-empty passwords are stored as bcrypt hashes.
func (m *Manager) CreateRoom(name, password string) (domain.Room, error) {
	name, err := ValidateRoomName(name)
	if err != nil {
		return domain.Room{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return domain.Room{}, err
	}

	var hash []byte
	if password != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Room{}, err
		}
	}

	room := domain.NewRoom(name, hash)

	m.mu.Lock()
	m.rooms[room.ID] = room
	m.history[room.ID] = make([]domain.Message, 0)
	snap := snapshotRoom(room)
	m.mu.Unlock()

	m.logger.Info("room created", "roomId", room.ID, "name", room.Name, "protected", room.HasPassword())
	m.sink.RoomCreated(snap)
	return snap, nil
}

// JoinRoom adds a user to a room. It fails with ErrRoomNotFound if the room
// is absent, ErrWrongPassword if the room is protected and the password
// does not match (a password supplied to an open room is ignored), and
// ErrUsernameTaken if the exact username is already a member. It does not
// register a transport session; that is a separate step keyed by the
// returned user's ID.
func (m *Manager) JoinRoom(roomID, username, password string) (domain.Room, domain.User, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return domain.Room{}, domain.User{}, err
	}

	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return domain.Room{}, domain.User{}, ErrRoomNotFound
	}
	hash := room.PasswordHash
	m.mu.Unlock()

	// The hash comparison is deliberately slow; it must not run under the
	// state lock. The hash is immutable after room creation, so comparing
	// against the snapshot is safe.
	if len(hash) > 0 {
		if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
			return domain.Room{}, domain.User{}, ErrWrongPassword
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// The room may have emptied out and been deleted during the comparison.
	room, ok = m.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.User{}, ErrRoomNotFound
	}
	if room.HasUsername(username) {
		return domain.Room{}, domain.User{}, ErrUsernameTaken
	}

	user := domain.NewUser(username, roomID)
	room.Members = append(room.Members, user)
	snap := snapshotRoom(room)

	m.logger.Info("user joined room", "roomId", roomID, "userId", user.ID, "username", username)
	m.sink.UserJoined(user)
	return snap, user, nil
}

// LeaveRoom removes the user from the room's membership if present and
// drops any session for it. A miss is not an error: duplicate or late
// leave calls are expected, so it reports whether a user was removed.
// When the last member leaves, the room, its history and any residual
// session state for it are deleted immediately.
func (m *Manager) LeaveRoom(roomID, userID string) (domain.User, bool) {
	m.mu.Lock()

	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return domain.User{}, false
	}

	user, found := room.FindMember(userID)
	if found {
		room.RemoveMember(userID)
	}
	delete(m.sessions, sessionKey{roomID: roomID, userID: userID})

	var (
		deleted     bool
		deletedSnap domain.Room
		stale       []Connection
	)
	if found && room.IsEmpty() {
		for key, s := range m.sessions {
			if key.roomID == roomID {
				stale = append(stale, s.conn)
				delete(m.sessions, key)
			}
		}
		delete(m.rooms, roomID)
		delete(m.history, roomID)
		deleted = true
		deletedSnap = snapshotRoom(room)
	}
	m.mu.Unlock()

	if !found {
		return domain.User{}, false
	}

	for _, conn := range stale {
		_ = conn.Close()
	}

	m.logger.Info("user left room", "roomId", roomID, "userId", userID, "username", user.Username)
	m.sink.UserLeft(user)
	if deleted {
		m.logger.Info("room deleted", "roomId", roomID, "name", deletedSnap.Name)
		m.sink.RoomDeleted(deletedSnap)
	}
	return user, true
}

// GetRoom returns a snapshot of a room.
func (m *Manager) GetRoom(roomID string) (domain.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return snapshotRoom(room), true
}

// ListRooms returns snapshots of all rooms.
func (m *Manager) ListRooms() []domain.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, snapshotRoom(room))
	}
	return rooms
}

// GetUser returns the member with the given ID in a room.
func (m *Manager) GetUser(userID, roomID string) (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return domain.User{}, false
	}
	return room.FindMember(userID)
}

// GetRoomUsers returns the members of a room in join order.
func (m *Manager) GetRoomUsers(roomID string) []domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	users := make([]domain.User, len(room.Members))
	copy(users, room.Members)
	return users
}

// AddSession registers (or replaces) the live connection for a user in a
// room and resets its missed-heartbeat counter. The heartbeat monitor is
// started on the very first registration and only once per Manager.
func (m *Manager) AddSession(conn Connection, userID, roomID string) {
	m.mu.Lock()
	m.sessions[sessionKey{roomID: roomID, userID: userID}] = &session{
		roomID: roomID,
		userID: userID,
		conn:   conn,
	}
	m.mu.Unlock()

	m.monitorOnce.Do(func() {
		m.mu.Lock()
		m.monitorStarted = true
		m.mu.Unlock()
		go m.runHeartbeatMonitor(m.monitorCtx)
		m.logger.Info("heartbeat monitor started", "interval", m.heartbeatInterval, "maxMissed", m.maxMissed)
	})
}

// RemoveSession drops the session entry only. Membership removal is the
// caller's separate responsibility via LeaveRoom.
func (m *Manager) RemoveSession(userID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey{roomID: roomID, userID: userID})
}

// RemoveSessionIf drops the session entry only if conn is still the
// registered connection for the (room, user) pair. It reports whether the
// entry was removed; false means a reconnect has already replaced the
// session, and the caller must leave the live user alone.
func (m *Manager) RemoveSessionIf(conn Connection, userID, roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{roomID: roomID, userID: userID}
	s, ok := m.sessions[key]
	if !ok || s.conn != conn {
		return false
	}
	delete(m.sessions, key)
	return true
}

// Touch resets the missed-heartbeat counter for a session on inbound
// activity.
func (m *Manager) Touch(userID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionKey{roomID: roomID, userID: userID}]; ok {
		s.missed = 0
	}
}

// Broadcast appends the message to the room's history, then delivers it to
// every registered session in the room except excludeUserID. History is
// written first so it reflects what was sent even if every delivery fails.
// Sends run independently per session and failures are swallowed; one dead
// connection never blocks delivery to the rest.
func (m *Manager) Broadcast(msg domain.Message, roomID, excludeUserID string) {
	m.broadcastMu.Lock()
	defer m.broadcastMu.Unlock()

	m.mu.Lock()
	if history, ok := m.history[roomID]; ok {
		history = append(history, msg)
		if len(history) > m.maxHistory {
			history = history[len(history)-m.maxHistory:]
		}
		m.history[roomID] = history
	}
	conns := make([]Connection, 0, 8)
	for key, s := range m.sessions {
		if key.roomID != roomID {
			continue
		}
		if excludeUserID != "" && key.userID == excludeUserID {
			continue
		}
		conns = append(conns, s.conn)
	}
	m.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("failed to marshal message", "messageId", msg.ID, "error", err)
		return
	}
	text := string(data)

	var g errgroup.Group
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			if err := conn.Send(text); err != nil {
				m.logger.Debug("broadcast send failed", "roomId", roomID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.sink.MessageSent(msg)
}

// GetHistory returns the retained messages for a room, oldest first, or
// only the last limit entries if limit > 0. A deleted or unknown room
// yields an empty history.
func (m *Manager) GetHistory(roomID string, limit int) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages, ok := m.history[roomID]
	if !ok {
		return nil
	}
	if limit <= 0 || limit > len(messages) {
		limit = len(messages)
	}
	start := len(messages) - limit
	result := make([]domain.Message, limit)
	copy(result, messages[start:])
	return result
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// SessionCount returns the number of registered sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown cancels the heartbeat monitor, waits for it to stop, and closes
// every registered connection.
func (m *Manager) Shutdown() {
	m.monitorCancel()

	m.mu.Lock()
	started := m.monitorStarted
	conns := make([]Connection, 0, len(m.sessions))
	for _, s := range m.sessions {
		conns = append(conns, s.conn)
	}
	m.sessions = make(map[sessionKey]*session)
	m.mu.Unlock()

	if started {
		<-m.monitorDone
	}
	for _, conn := range conns {
		_ = conn.Close()
	}
}

// snapshotRoom copies a room so callers never observe later mutations.
// The caller must hold m.mu.
func snapshotRoom(room *domain.Room) domain.Room {
	snap := *room
	snap.Members = make([]domain.User, len(room.Members))
	copy(snap.Members, room.Members)
	return snap
}
