package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/moveefy/server/internal/repository/presence"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"
)

type repo struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, ttl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		ttl:    ttl,
		logger: logger,
	}
}

func (r repo) getPresenceKey(roomId string) string {
	return "room:" + roomId + ":presence"
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) AddMember(ctx context.Context, params *presence.AddMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getPresenceKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, key, params.ConnId, params.Username)
	pipe.Expire(ctx, key, r.ttl)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// RemoveMember is a no-op for members that are not mirrored. Redis drops the
// hash once its last field is removed.
func (r repo) RemoveMember(ctx context.Context, params *presence.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.HDel(ctx, r.getPresenceKey(params.RoomId), params.ConnId).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMembers(ctx context.Context, roomId string) ([]presence.Member, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	fields, err := r.rc.HGetAll(ctx, r.getPresenceKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	members := make([]presence.Member, 0, len(fields))
	for connId, username := range fields {
		members = append(members, presence.Member{ConnId: connId, Username: username})
	}
	slices.SortFunc(members, func(a, b presence.Member) int {
		if a.ConnId < b.ConnId {
			return -1
		}
		if a.ConnId > b.ConnId {
			return 1
		}
		return 0
	})

	return members, nil
}
