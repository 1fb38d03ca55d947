package room

import (
	"context"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/room"
)

// membershipNotifier returns a directory callback that sends the roster to every
// current member. It runs under the room lock, so connections whose queue is
// full are only collected into failed.
func (s *service) membershipNotifier(ctx context.Context, roomId string, roster *[]string, failed *[]domain.Conn) func([]room.Member) {
	return func(members []room.Member) {
		names := usernames(members)
		if roster != nil {
			*roster = names
		}

		ev := domain.MembershipChanged(names)
		for _, member := range members {
			if err := member.Conn.Send(ev); err != nil {
				s.logger.DebugContext(ctx, "failed to send membership", "room_id", roomId, "connection_id", member.ConnId, "error", err)
				collectFailed(failed, member.Conn, err)
			}
		}
	}
}
