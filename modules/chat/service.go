package chat

import (
	"time"

	domain "github.com/example/chat-relay-demo/domain/chat"
)

// Service names registered in the service container.
const (
	ServiceCreateRoom = "create-room"
	ServiceListRooms  = "list-rooms"
	ServiceGetRoom    = "get-room"
	ServiceJoinRoom   = "join-room"
	ServiceLeaveRoom  = "leave-room"
	ServiceGetUser    = "get-user"
	ServiceRoomUsers  = "room-users"
	ServiceGetHistory = "get-history"
)

// ServiceError carries a categorized operation error across the JSON
// request-reply boundary between modules.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newServiceError(err error) *ServiceError {
	return &ServiceError{Code: ErrorCode(err), Message: err.Error()}
}

// Err converts the wire form back into a categorized error.
func (e *ServiceError) Err() error {
	return ErrorFromCode(e.Code, e.Message)
}

// RoomInfo is the cross-module view of a room. The password hash never
// leaves the chat module; only its presence is exposed.
type RoomInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"hasPassword"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRoomInfo(room domain.Room) RoomInfo {
	return RoomInfo{
		ID:          room.ID,
		Name:        room.Name,
		HasPassword: room.HasPassword(),
		UserCount:   len(room.Members),
		CreatedAt:   room.CreatedAt,
	}
}

// CreateRoomRequest is the request for the create-room service.
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// CreateRoomResponse is the reply from the create-room service.
type CreateRoomResponse struct {
	Room  *RoomInfo     `json:"room,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the reply from the list-rooms service.
type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// GetRoomRequest is the request for the get-room service.
type GetRoomRequest struct {
	RoomID string `json:"roomId"`
}

// GetRoomResponse is the reply from the get-room service.
type GetRoomResponse struct {
	Room  *RoomInfo     `json:"room,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// JoinRoomRequest is the request for the join-room service.
type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// JoinRoomResponse is the reply from the join-room service.
type JoinRoomResponse struct {
	User  *domain.User  `json:"user,omitempty"`
	Room  *RoomInfo     `json:"room,omitempty"`
	Users []domain.User `json:"users,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// LeaveRoomRequest is the request for the leave-room service.
type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// LeaveRoomResponse is the reply from the leave-room service. Removed is
// false when the user was not a member; that is not an error.
type LeaveRoomResponse struct {
	User    *domain.User `json:"user,omitempty"`
	Removed bool         `json:"removed"`
}

// GetUserRequest is the request for the get-user service.
type GetUserRequest struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

// GetUserResponse is the reply from the get-user service.
type GetUserResponse struct {
	User  *domain.User  `json:"user,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// RoomUsersRequest is the request for the room-users service.
type RoomUsersRequest struct {
	RoomID string `json:"roomId"`
}

// RoomUsersResponse is the reply from the room-users service.
type RoomUsersResponse struct {
	Users []domain.User `json:"users"`
	Error *ServiceError `json:"error,omitempty"`
}

// GetHistoryRequest is the request for the get-history service.
type GetHistoryRequest struct {
	RoomID string `json:"roomId"`
	Limit  int    `json:"limit,omitempty"`
}

// GetHistoryResponse is the reply from the get-history service.
type GetHistoryResponse struct {
	Messages []domain.Message `json:"messages"`
	Error    *ServiceError    `json:"error,omitempty"`
}
