package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-relay-demo/domain/chat"
)

// JoinResult is the outcome of a successful join: the new user, a snapshot
// of the room, and its members in join order.
type JoinResult struct {
	User  domain.User
	Room  RoomInfo
	Users []domain.User
}

// ChatPort defines the cross-module interface for chat operations.
type ChatPort interface {
	CreateRoom(ctx context.Context, name, password string) (RoomInfo, error)
	ListRooms(ctx context.Context) ([]RoomInfo, error)
	GetRoom(ctx context.Context, roomID string) (RoomInfo, error)
	JoinRoom(ctx context.Context, roomID, username, password string) (JoinResult, error)
	LeaveRoom(ctx context.Context, roomID, userID string) (domain.User, bool, error)
	GetUser(ctx context.Context, userID, roomID string) (domain.User, error)
	GetRoomUsers(ctx context.Context, roomID string) ([]domain.User, error)
	GetHistory(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// ChatAdapter implements ChatPort on top of the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// CreateRoom creates a new chat room.
func (a *ChatAdapter) CreateRoom(ctx context.Context, name, password string) (RoomInfo, error) {
	req := CreateRoomRequest{Name: name, Password: password}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreateRoom, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return RoomInfo{}, fmt.Errorf("create-room service call failed: %w", err)
	}
	if resp.Error != nil {
		return RoomInfo{}, resp.Error.Err()
	}
	return *resp.Room, nil
}

// ListRooms returns all available rooms.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceListRooms, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-rooms service call failed: %w", err)
	}
	return resp.Rooms, nil
}

// GetRoom retrieves a room by ID.
func (a *ChatAdapter) GetRoom(ctx context.Context, roomID string) (RoomInfo, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetRoom, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return RoomInfo{}, fmt.Errorf("get-room service call failed: %w", err)
	}
	if resp.Error != nil {
		return RoomInfo{}, resp.Error.Err()
	}
	return *resp.Room, nil
}

// JoinRoom adds a user to a room.
func (a *ChatAdapter) JoinRoom(ctx context.Context, roomID, username, password string) (JoinResult, error) {
	req := JoinRoomRequest{RoomID: roomID, Username: username, Password: password}
	var resp JoinRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceJoinRoom, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return JoinResult{}, fmt.Errorf("join-room service call failed: %w", err)
	}
	if resp.Error != nil {
		return JoinResult{}, resp.Error.Err()
	}
	return JoinResult{User: *resp.User, Room: *resp.Room, Users: resp.Users}, nil
}

// LeaveRoom removes a user from a room. The second return reports whether
// a user was actually removed; a miss is not an error.
func (a *ChatAdapter) LeaveRoom(ctx context.Context, roomID, userID string) (domain.User, bool, error) {
	req := LeaveRoomRequest{RoomID: roomID, UserID: userID}
	var resp LeaveRoomResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceLeaveRoom, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return domain.User{}, false, fmt.Errorf("leave-room service call failed: %w", err)
	}
	if !resp.Removed {
		return domain.User{}, false, nil
	}
	return *resp.User, true, nil
}

// GetUser retrieves a member of a room by user ID.
func (a *ChatAdapter) GetUser(ctx context.Context, userID, roomID string) (domain.User, error) {
	req := GetUserRequest{UserID: userID, RoomID: roomID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetUser, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return domain.User{}, fmt.Errorf("get-user service call failed: %w", err)
	}
	if resp.Error != nil {
		return domain.User{}, resp.Error.Err()
	}
	return *resp.User, nil
}

// GetRoomUsers returns all members in a room.
func (a *ChatAdapter) GetRoomUsers(ctx context.Context, roomID string) ([]domain.User, error) {
	req := RoomUsersRequest{RoomID: roomID}
	var resp RoomUsersResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceRoomUsers, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("room-users service call failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Users, nil
}

// GetHistory retrieves the retained message history for a room.
func (a *ChatAdapter) GetHistory(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	req := GetHistoryRequest{RoomID: roomID, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetHistory, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-history service call failed: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Messages, nil
}
