package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/presence"
	"github.com/moveefy/server/internal/repository/room"
	"go.uber.org/atomic"
)

var ErrNotAMember = room.ErrNotAMember

const defaultPresenceTimeout = 2 * time.Second

type iRoomRepo interface {
	Join(roomId string, member room.Member, onChange func([]room.Member)) error
	Leave(roomId, connId string, onChange func([]room.Member)) (room.Member, bool)
	Fanout(roomId, senderId string, deliver func(sender, recipient room.Member)) error
	MembersOf(roomId string) []room.Member
	RoomOf(connId string) (string, bool)
	Stats() (rooms, members int)
}

type iConnRepo interface {
	Add(conn domain.Conn) error
	Remove(connId string) (domain.Conn, string, error)
	Get(connId string) (domain.Conn, error)
	Count() int
	All() []domain.Conn
}

type iPresenceRepo interface {
	AddMember(context.Context, *presence.AddMemberParams) error
	RemoveMember(context.Context, *presence.RemoveMemberParams) error
}

type Option func(*service)

// WithPresence mirrors live membership into repo after every join and leave.
func WithPresence(repo iPresenceRepo, timeout time.Duration) Option {
	return func(s *service) {
		s.presenceRepo = repo
		if timeout > 0 {
			s.presenceTimeout = timeout
		}
	}
}

type service struct {
	roomRepo        iRoomRepo
	connRepo        iConnRepo
	presenceRepo    iPresenceRepo
	presenceTimeout time.Duration
	logger          *slog.Logger

	routed    atomic.Int64
	dropped   atomic.Int64
	malformed atomic.Int64
	evicted   atomic.Int64
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger, opts ...Option) *service {
	s := &service{
		roomRepo:        roomRepo,
		connRepo:        connRepo,
		presenceTimeout: defaultPresenceTimeout,
		logger:          logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Shutdown closes every registered connection. Their read loops then run the
// usual disconnect cleanup.
func (s *service) Shutdown(ctx context.Context) {
	conns := s.connRepo.All()
	s.logger.InfoContext(ctx, "closing connections", "count", len(conns))
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			s.logger.DebugContext(ctx, "failed to close connection", "connection_id", conn.Id(), "error", err)
		}
	}
}
