package chat

import (
	"time"

	"github.com/google/uuid"
)

// MessageType tags the kind of payload a Message carries.
type MessageType string

// Wire values for MessageType.
const (
	MessageTypeChat       MessageType = "message"
	MessageTypeUserJoined MessageType = "userJoined"
	MessageTypeUserLeft   MessageType = "userLeft"
	MessageTypeSystem     MessageType = "system"
)

// Message is a single chat frame. Messages are immutable once created;
// Username is denormalized at creation time so the frame stays valid even
// after the author leaves the room.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"roomId"`
	UserID    string      `json:"userId"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// NewMessage builds a Message with a fresh ID and the current timestamp.
func NewMessage(roomID, userID, username, content string, msgType MessageType) Message {
	return Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		Timestamp: time.Now(),
		Type:      msgType,
	}
}

// User is a member of exactly one room. Leaving the room deletes the record.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	RoomID   string    `json:"roomId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewUser builds a User with a fresh ID and the current join timestamp.
func NewUser(username, roomID string) User {
	return User{
		ID:       uuid.New().String(),
		Username: username,
		RoomID:   roomID,
		JoinedAt: time.Now(),
	}
}

// Room is a named chat channel with its own membership. Members are kept in
// join order and their usernames are pairwise distinct (exact match).
// PasswordHash is a bcrypt hash, empty for open rooms; it never leaves the
// chat module.
type Room struct {
	ID           string
	Name         string
	PasswordHash []byte
	Members      []User
	CreatedAt    time.Time
}

// NewRoom builds an empty Room with a fresh ID.
func NewRoom(name string, passwordHash []byte) *Room {
	return &Room{
		ID:           uuid.New().String(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// HasPassword reports whether joining the room requires a password.
func (r *Room) HasPassword() bool {
	return len(r.PasswordHash) > 0
}

// HasUsername reports whether a member with the exact username exists.
func (r *Room) HasUsername(username string) bool {
	for _, u := range r.Members {
		if u.Username == username {
			return true
		}
	}
	return false
}

// FindMember returns the member with the given user ID, if any.
func (r *Room) FindMember(userID string) (User, bool) {
	for _, u := range r.Members {
		if u.ID == userID {
			return u, true
		}
	}
	return User{}, false
}

// RemoveMember deletes the member with the given user ID, preserving join
// order of the remaining members. It reports whether a member was removed.
func (r *Room) RemoveMember(userID string) bool {
	for i, u := range r.Members {
		if u.ID == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the room has no members.
func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}
