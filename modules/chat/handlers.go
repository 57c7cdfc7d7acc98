package chat

import (
	"context"

	"github.com/go-monolith/mono"

	domain "github.com/example/chat-relay-demo/domain/chat"
)

// Request-reply service handlers. Operation errors are returned inside the
// response so their category survives the JSON boundary; a non-nil Go error
// is reserved for transport failures.

func (m *Module) handleCreateRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	room, err := m.manager.CreateRoom(req.Name, req.Password)
	if err != nil {
		return CreateRoomResponse{Error: newServiceError(err)}, nil
	}
	info := toRoomInfo(room)
	return CreateRoomResponse{Room: &info}, nil
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms := m.manager.ListRooms()
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, toRoomInfo(room))
	}
	return ListRoomsResponse{Rooms: infos}, nil
}

func (m *Module) handleGetRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, ok := m.manager.GetRoom(req.RoomID)
	if !ok {
		return GetRoomResponse{Error: newServiceError(ErrRoomNotFound)}, nil
	}
	info := toRoomInfo(room)
	return GetRoomResponse{Room: &info}, nil
}

func (m *Module) handleJoinRoom(_ context.Context, req JoinRoomRequest, _ *mono.Msg) (JoinRoomResponse, error) {
	room, user, err := m.manager.JoinRoom(req.RoomID, req.Username, req.Password)
	if err != nil {
		return JoinRoomResponse{Error: newServiceError(err)}, nil
	}

	// Announce the join to members already connected; the joiner has no
	// session yet and catches up via history.
	notice := domain.NewMessage(
		room.ID,
		user.ID,
		user.Username,
		user.Username+" joined the room",
		domain.MessageTypeUserJoined,
	)
	m.manager.Broadcast(notice, room.ID, "")

	info := toRoomInfo(room)
	return JoinRoomResponse{User: &user, Room: &info, Users: room.Members}, nil
}

func (m *Module) handleLeaveRoom(_ context.Context, req LeaveRoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	user, removed := m.manager.LeaveRoom(req.RoomID, req.UserID)
	if !removed {
		return LeaveRoomResponse{Removed: false}, nil
	}

	notice := domain.NewMessage(
		req.RoomID,
		user.ID,
		user.Username,
		user.Username+" left the room",
		domain.MessageTypeUserLeft,
	)
	m.manager.Broadcast(notice, req.RoomID, "")

	return LeaveRoomResponse{User: &user, Removed: true}, nil
}

func (m *Module) handleGetUser(_ context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, ok := m.manager.GetUser(req.UserID, req.RoomID)
	if !ok {
		return GetUserResponse{Error: newServiceError(ErrUserNotFound)}, nil
	}
	return GetUserResponse{User: &user}, nil
}

func (m *Module) handleRoomUsers(_ context.Context, req RoomUsersRequest, _ *mono.Msg) (RoomUsersResponse, error) {
	if _, ok := m.manager.GetRoom(req.RoomID); !ok {
		return RoomUsersResponse{Error: newServiceError(ErrRoomNotFound)}, nil
	}
	return RoomUsersResponse{Users: m.manager.GetRoomUsers(req.RoomID)}, nil
}

func (m *Module) handleGetHistory(_ context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	if _, ok := m.manager.GetRoom(req.RoomID); !ok {
		return GetHistoryResponse{Error: newServiceError(ErrRoomNotFound)}, nil
	}
	return GetHistoryResponse{Messages: m.manager.GetHistory(req.RoomID, req.Limit)}, nil
}
