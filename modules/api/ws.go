package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	domain "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/modules/chat"
)

// Heartbeat control frames are literal text, not JSON.
const (
	pingFrame = "ping"
	pongFrame = "pong"
)

// writeTimeout bounds a single outbound frame write so one wedged
// connection cannot stall broadcast fan-out indefinitely.
const writeTimeout = 10 * time.Second

// sessionManager is the connection-level surface of the chat Manager used
// by the WebSocket layer.
type sessionManager interface {
	GetUser(userID, roomID string) (domain.User, bool)
	AddSession(conn chat.Connection, userID, roomID string)
	RemoveSessionIf(conn chat.Connection, userID, roomID string) bool
	Touch(userID, roomID string)
	Broadcast(msg domain.Message, roomID, excludeUserID string)
	LeaveRoom(roomID, userID string) (domain.User, bool)
	SessionCount() int
}

var _ sessionManager = (*chat.Manager)(nil)

// inboundFrame is a JSON chat frame from the client.
type inboundFrame struct {
	Content string `json:"content"`
}

// errorFrame is pushed to a client when its frame is rejected.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// wsTransport is the writable half of a WebSocket connection.
type wsTransport interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsConn adapts a WebSocket connection to chat.Connection. The write mutex
// is required: the broadcast fan-out and the heartbeat monitor may write
// concurrently, and the underlying connection supports only one writer.
type wsConn struct {
	conn wsTransport
	mu   sync.Mutex
}

func (w *wsConn) Send(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

var _ chat.Connection = (*wsConn)(nil)

// handleWebSocket handles connections at /ws/:roomId/:userId. The user
// must have joined the room over REST first; unknown pairs are refused.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	roomID := c.Params("roomId")
	userID := c.Params("userId")

	user, ok := m.manager.GetUser(userID, roomID)
	if !ok {
		m.logger.Warn("WebSocket refused, unknown member", "roomID", roomID, "userID", userID)
		_ = c.WriteMessage(websocket.TextMessage, mustEncodeError("not a member of this room"))
		_ = c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "join the room first"))
		_ = c.Close()
		return
	}

	wc := &wsConn{conn: c}
	m.manager.AddSession(wc, userID, roomID)
	limiter := m.limiters.get(userID)

	m.logger.Info("WebSocket connected", "roomID", roomID, "userID", userID, "username", user.Username)
	defer m.closeSession(wc, roomID, userID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Error("WebSocket read error", "userID", userID, "error", err)
			}
			return
		}
		m.handleFrame(wc, roomID, userID, user.Username, data, limiter)
	}
}

// handleFrame processes one inbound frame. Any frame is inbound activity
// and resets the session's missed-heartbeat counter, chat payload or not.
func (m *APIModule) handleFrame(wc chat.Connection, roomID, userID, username string, data []byte, limiter *rateLimiter) {
	m.manager.Touch(userID, roomID)

	switch string(data) {
	case pingFrame:
		_ = wc.Send(pongFrame)
		return
	case pongFrame:
		return
	}

	if !limiter.allow() {
		m.sendError(wc, "Rate limit exceeded, please slow down")
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		m.sendError(wc, "Invalid message format")
		return
	}

	content, err := chat.ValidateMessageContent(frame.Content)
	if err != nil {
		m.sendError(wc, err.Error())
		return
	}

	m.manager.Broadcast(domain.NewMessage(
		roomID, userID, username, content, domain.MessageTypeChat,
	), roomID, "")
}

// closeSession tears down a closed connection. When a reconnect has
// already replaced the session, the stale handler must not touch the live
// user, so the session entry is removed only if wc still owns it.
func (m *APIModule) closeSession(wc chat.Connection, roomID, userID string) {
	if !m.manager.RemoveSessionIf(wc, userID, roomID) {
		m.logger.Info("WebSocket disconnected, session already replaced", "roomID", roomID, "userID", userID)
		return
	}
	m.limiters.remove(userID)

	// A live disconnect also leaves the room. If the heartbeat monitor
	// already evicted the session, removed is false and no second notice
	// goes out.
	if left, removed := m.manager.LeaveRoom(roomID, userID); removed {
		m.manager.Broadcast(domain.NewMessage(
			roomID, left.ID, left.Username,
			left.Username+" left the room",
			domain.MessageTypeUserLeft,
		), roomID, "")
	}
	m.logger.Info("WebSocket disconnected", "roomID", roomID, "userID", userID)
}

func (m *APIModule) sendError(wc chat.Connection, reason string) {
	if err := wc.Send(string(mustEncodeError(reason))); err != nil {
		m.logger.Debug("failed to send error frame", "error", err)
	}
}

func mustEncodeError(reason string) []byte {
	data, err := json.Marshal(errorFrame{Type: "error", Error: reason})
	if err != nil {
		return []byte(`{"type":"error","error":"internal error"}`)
	}
	return data
}
