package room

import (
	"context"
	"errors"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/presence"
	"github.com/moveefy/server/internal/repository/room"
	"golang.org/x/exp/slices"
)

func usernames(members []room.Member) []string {
	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.Username)
	}
	slices.Sort(names)

	return names
}

// collectFailed records conn for eviction unless it is already closing.
func collectFailed(failed *[]domain.Conn, conn domain.Conn, err error) {
	if errors.Is(err, domain.ErrConnClosed) {
		return
	}
	*failed = append(*failed, conn)
}

// evict closes connections that could not keep up. It must be called without
// any room lock held; the closed connection's read loop performs the cleanup.
func (s *service) evict(ctx context.Context, conns []domain.Conn) {
	for _, conn := range conns {
		s.evicted.Inc()
		s.logger.WarnContext(ctx, "closing slow connection", "connection_id", conn.Id())
		if err := conn.Close(); err != nil {
			s.logger.DebugContext(ctx, "failed to close connection", "connection_id", conn.Id(), "error", err)
		}
	}
}

func (s *service) presenceCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.presenceTimeout)
}

func (s *service) mirrorJoin(ctx context.Context, roomId string, member room.Member) {
	if s.presenceRepo == nil {
		return
	}

	ctx, cancel := s.presenceCtx(ctx)
	defer cancel()
	if err := s.presenceRepo.AddMember(ctx, &presence.AddMemberParams{
		RoomId:   roomId,
		ConnId:   member.ConnId,
		Username: member.Username,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror presence", "room_id", roomId, "error", err)
	}
}

func (s *service) mirrorLeave(ctx context.Context, roomId, connId string) {
	if s.presenceRepo == nil {
		return
	}

	ctx, cancel := s.presenceCtx(ctx)
	defer cancel()
	if err := s.presenceRepo.RemoveMember(ctx, &presence.RemoveMemberParams{
		RoomId: roomId,
		ConnId: connId,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to remove mirrored presence", "room_id", roomId, "error", err)
	}
}
