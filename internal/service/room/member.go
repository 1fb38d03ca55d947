package room

import (
	"context"
	"fmt"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/room"
)

func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn); err != nil {
		s.logger.InfoContext(ctx, "failed to add connection", "error", err)
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	connId := params.Conn.Id()
	if _, err := s.connRepo.Get(connId); err != nil {
		s.logger.InfoContext(ctx, "failed to get connection", "error", err)
		return JoinRoomResponse{}, fmt.Errorf("failed to get connection: %w", err)
	}

	var response JoinRoomResponse
	if prevRoomId, ok := s.roomRepo.RoomOf(connId); ok && prevRoomId != params.RoomId {
		s.leave(ctx, prevRoomId, connId)
		response.PreviousRoomId = prevRoomId
	}

	member := room.Member{
		ConnId:   connId,
		Username: params.Username,
		Conn:     params.Conn,
	}

	var failed []domain.Conn
	err := s.roomRepo.Join(params.RoomId, member, s.membershipNotifier(ctx, params.RoomId, &response.Members, &failed))
	s.evict(ctx, failed)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to join room", "room_id", params.RoomId, "error", err)
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}
	s.mirrorJoin(ctx, params.RoomId, member)

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "username", params.Username)
	return response, nil
}

func (s *service) leave(ctx context.Context, roomId, connId string) bool {
	var failed []domain.Conn
	member, ok := s.roomRepo.Leave(roomId, connId, s.membershipNotifier(ctx, roomId, nil, &failed))
	if !ok {
		return false
	}

	s.evict(ctx, failed)
	s.mirrorLeave(ctx, roomId, connId)

	s.logger.InfoContext(ctx, "member left", "room_id", roomId, "username", member.Username)
	return true
}

// LeaveRoom is a no-op when the connection is not in the room.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) LeaveRoomResponse {
	return LeaveRoomResponse{
		Left: s.leave(ctx, params.RoomId, params.ConnId),
	}
}

// DisconnectMember removes the connection from the registry and then from the
// room it was bound to. Calling it more than once is harmless.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) DisconnectMemberResponse {
	ctx = context.WithoutCancel(ctx)

	// once removed, a concurrent join can no longer bind this connection
	_, roomId, err := s.connRepo.Remove(params.ConnId)
	if err != nil {
		s.logger.DebugContext(ctx, "connection already removed", "connection_id", params.ConnId, "error", err)
		return DisconnectMemberResponse{}
	}

	var response DisconnectMemberResponse
	if roomId != "" {
		response.RoomId = roomId
		response.Left = s.leave(ctx, roomId, params.ConnId)
	}

	return response
}

// MembersOf returns the sorted display names of roomId. An unknown room is empty.
func (s *service) MembersOf(_ context.Context, roomId string) []string {
	return usernames(s.roomRepo.MembersOf(roomId))
}

func (s *service) RoomOf(connId string) (string, bool) {
	return s.roomRepo.RoomOf(connId)
}

func (s *service) Stats() Stats {
	rooms, members := s.roomRepo.Stats()
	return Stats{
		Rooms:       rooms,
		Members:     members,
		Connections: s.connRepo.Count(),
		Routed:      s.routed.Load(),
		Dropped:     s.dropped.Load(),
		Malformed:   s.malformed.Load(),
		Evicted:     s.evicted.Load(),
	}
}
