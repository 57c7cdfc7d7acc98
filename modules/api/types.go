package api

import (
	"time"

	domain "github.com/example/chat-relay-demo/domain/chat"
	"github.com/example/chat-relay-demo/modules/chat"
)

// CreateRoomRequest is the body of POST /api/rooms.
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// JoinRoomRequest is the body of POST /api/rooms/:roomId/join.
type JoinRoomRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// JoinRoomResponse is returned after a successful join.
type JoinRoomResponse struct {
	User  UserResponse   `json:"user"`
	Room  chat.RoomInfo  `json:"room"`
	Users []UserResponse `json:"users"`
}

// UserResponse is the API representation of a room member.
type UserResponse struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	RoomID   string    `json:"roomId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// RoomListResponse is the body of GET /api/rooms.
type RoomListResponse struct {
	Rooms []chat.RoomInfo `json:"rooms"`
	Total int             `json:"total"`
}

// RoomUsersResponse is the body of GET /api/rooms/:roomId/users.
type RoomUsersResponse struct {
	RoomID string         `json:"roomId"`
	Users  []UserResponse `json:"users"`
}

// HistoryResponse is the body of GET /api/rooms/:roomId/messages.
type HistoryResponse struct {
	RoomID   string           `json:"roomId"`
	Messages []domain.Message `json:"messages"`
	Total    int              `json:"total"`
}

// LeaveResponse is the body of DELETE /api/rooms/:roomId/leave/:userId.
type LeaveResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		RoomID:   u.RoomID,
		JoinedAt: u.JoinedAt,
	}
}

func toUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
