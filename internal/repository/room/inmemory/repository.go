package inmemory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/moveefy/server/internal/repository/room"
	"golang.org/x/exp/maps"
)

type iConnRepo interface {
	Bind(connId, roomId string) error
	Unbind(connId, roomId string) bool
	RoomOf(connId string) (string, error)
}

// roomEntry is the membership of one room. Every access holds mu;
// closed is set once the entry has been dropped from the directory.
type roomEntry struct {
	mu      sync.Mutex
	members map[string]room.Member
	closed  bool
}

func (e *roomEntry) snapshot() []room.Member {
	return maps.Values(e.members)
}

type repo struct {
	rooms    map[string]*roomEntry
	mu       sync.Mutex
	connRepo iConnRepo
	logger   *slog.Logger
}

func NewRepo(connRepo iConnRepo, logger *slog.Logger) *repo {
	return &repo{
		rooms:    make(map[string]*roomEntry),
		connRepo: connRepo,
		logger:   logger,
	}
}

// lockRoom returns the entry for roomId with its lock held, or nil when the room
// is absent and create is false. The directory lock is never held while waiting
// on a room lock.
func (r *repo) lockRoom(roomId string, create bool) *roomEntry {
	for {
		r.mu.Lock()
		e, ok := r.rooms[roomId]
		if !ok {
			if !create {
				r.mu.Unlock()
				return nil
			}

			e = &roomEntry{members: make(map[string]room.Member)}
			r.rooms[roomId] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.closed {
			return e
		}
		// lost a race with the last leave; the entry is already gone from the map
		e.mu.Unlock()
	}
}

// Join adds member to roomId and calls onChange with the resulting membership
// while the room is still locked. Joining twice replaces the member and still
// calls onChange. A connection that is no longer registered is not added and
// onChange is not called.
func (r *repo) Join(roomId string, member room.Member, onChange func([]room.Member)) error {
	e := r.lockRoom(roomId, true)
	defer e.mu.Unlock()

	if err := r.connRepo.Bind(member.ConnId, roomId); err != nil {
		r.logger.Info("room.inmemory.Join: failed to bind connection", "room_id", roomId, "connection_id", member.ConnId, "error", err)
		if _, ok := e.members[member.ConnId]; ok {
			delete(e.members, member.ConnId)
			if len(e.members) > 0 && onChange != nil {
				onChange(e.snapshot())
			}
		}
		if len(e.members) == 0 {
			r.discard(roomId, e)
		}

		return fmt.Errorf("failed to bind connection: %w", err)
	}
	e.members[member.ConnId] = member

	r.logger.Debug("room.inmemory.Join", "room_id", roomId, "connection_id", member.ConnId, "members", len(e.members))
	if onChange != nil {
		onChange(e.snapshot())
	}

	return nil
}

// discard drops an empty room from the directory. The caller holds e.mu.
func (r *repo) discard(roomId string, e *roomEntry) {
	e.closed = true
	r.mu.Lock()
	delete(r.rooms, roomId)
	r.mu.Unlock()
}

// Leave removes connId from roomId. It reports false when the room or the member
// was already absent, in which case onChange is not called. The last member
// leaving discards the room and onChange is not called either.
func (r *repo) Leave(roomId, connId string, onChange func([]room.Member)) (room.Member, bool) {
	e := r.lockRoom(roomId, false)
	if e == nil {
		return room.Member{}, false
	}
	defer e.mu.Unlock()

	member, ok := e.members[connId]
	if !ok {
		return room.Member{}, false
	}

	delete(e.members, connId)
	r.connRepo.Unbind(connId, roomId)

	r.logger.Debug("room.inmemory.Leave", "room_id", roomId, "connection_id", connId, "members", len(e.members))
	if len(e.members) == 0 {
		r.discard(roomId, e)

		r.logger.Debug("room.inmemory.Leave: room removed", "room_id", roomId)
		return member, true
	}

	if onChange != nil {
		onChange(e.snapshot())
	}

	return member, true
}

// Fanout calls deliver for every member of roomId except senderId, holding the
// room lock so that concurrent fan-outs to the same room never interleave.
func (r *repo) Fanout(roomId, senderId string, deliver func(sender, recipient room.Member)) error {
	e := r.lockRoom(roomId, false)
	if e == nil {
		return room.ErrNotAMember
	}
	defer e.mu.Unlock()

	sender, ok := e.members[senderId]
	if !ok {
		return room.ErrNotAMember
	}

	for connId, member := range e.members {
		if connId == senderId {
			continue
		}

		deliver(sender, member)
	}

	return nil
}

func (r *repo) MembersOf(roomId string) []room.Member {
	e := r.lockRoom(roomId, false)
	if e == nil {
		return []room.Member{}
	}
	defer e.mu.Unlock()

	return e.snapshot()
}

func (r *repo) RoomOf(connId string) (string, bool) {
	roomId, err := r.connRepo.RoomOf(connId)
	if err != nil || roomId == "" {
		return "", false
	}

	return roomId, true
}

func (r *repo) Stats() (rooms, members int) {
	r.mu.Lock()
	entries := maps.Values(r.rooms)
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			rooms++
			members += len(e.members)
		}
		e.mu.Unlock()
	}

	return rooms, members
}
