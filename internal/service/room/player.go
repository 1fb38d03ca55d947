package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/playback"
	"github.com/moveefy/server/internal/repository/room"
)

// Route relays ev to every member of the room except the sender. A sender that
// is not a member gets ErrNotAMember and nothing is delivered.
func (s *service) Route(ctx context.Context, params *RouteParams) error {
	var failed []domain.Conn
	if err := s.roomRepo.Fanout(params.RoomId, params.SenderId, func(sender, recipient room.Member) {
		if err := recipient.Conn.Send(domain.Relayed(params.Event, sender.Username)); err != nil {
			s.logger.DebugContext(ctx, "failed to relay event", "connection_id", recipient.ConnId, "error", err)
			collectFailed(&failed, recipient.Conn, err)
		}
	}); err != nil {
		s.dropped.Inc()
		s.logger.InfoContext(ctx, "dropped event", "room_id", params.RoomId, "kind", params.Event.Kind, "error", err)
		return fmt.Errorf("failed to route %s: %w", params.Event.Kind, err)
	}

	s.routed.Inc()
	s.evict(ctx, failed)
	return nil
}

// SendAction decodes a raw action and routes it.
func (s *service) SendAction(ctx context.Context, params *SendActionParams) error {
	ev, err := playback.Decode(params.Action)
	if err != nil {
		s.malformed.Inc()
		s.logger.InfoContext(ctx, "dropped malformed action", "room_id", params.RoomId, "error", err)
		return fmt.Errorf("failed to decode action: %w", err)
	}

	return s.Route(ctx, &RouteParams{
		RoomId:   params.RoomId,
		SenderId: params.SenderId,
		Event:    ev,
	})
}

// IsDropped reports whether err is one of the errors that drop an action
// silently instead of being reported to the client.
func IsDropped(err error) bool {
	return errors.Is(err, playback.ErrMalformedAction) || errors.Is(err, ErrNotAMember)
}
