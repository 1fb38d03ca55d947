package inmemory

import (
	"log/slog"
	"sync"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/connection"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// entry holds the room a connection is bound to. Once removed is set under
// mu the entry can no longer be bound.
type entry struct {
	conn    domain.Conn
	mu      sync.Mutex
	roomId  string
	removed bool
}

type repo struct {
	conns  cmap.ConcurrentMap[string, *entry]
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  cmap.New[*entry](),
		logger: logger,
	}
}

func (r *repo) Add(conn domain.Conn) error {
	r.logger.Debug("connection.inmemory.Add", "connection_id", conn.Id())
	if !r.conns.SetIfAbsent(conn.Id(), &entry{conn: conn}) {
		return connection.ErrAlreadyExists
	}

	return nil
}

// Remove drops connId and returns its connection together with the room it was
// bound to at removal time.
func (r *repo) Remove(connId string) (domain.Conn, string, error) {
	r.logger.Debug("connection.inmemory.Remove", "connection_id", connId)
	e, ok := r.conns.Pop(connId)
	if !ok {
		return nil, "", connection.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true

	return e.conn, e.roomId, nil
}

func (r *repo) Get(connId string) (domain.Conn, error) {
	e, ok := r.conns.Get(connId)
	if !ok {
		return nil, connection.ErrNotFound
	}

	return e.conn, nil
}

// Bind records that connId is attached to roomId, replacing any previous room.
func (r *repo) Bind(connId, roomId string) error {
	e, ok := r.conns.Get(connId)
	if !ok {
		return connection.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return connection.ErrNotFound
	}
	e.roomId = roomId

	return nil
}

// Unbind clears the room of connId only if it is still roomId.
func (r *repo) Unbind(connId, roomId string) bool {
	e, ok := r.conns.Get(connId)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.roomId != roomId {
		return false
	}

	e.roomId = ""
	return true
}

func (r *repo) RoomOf(connId string) (string, error) {
	e, ok := r.conns.Get(connId)
	if !ok {
		return "", connection.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.roomId, nil
}

func (r *repo) Count() int {
	return r.conns.Count()
}

func (r *repo) All() []domain.Conn {
	items := r.conns.Items()
	conns := make([]domain.Conn, 0, len(items))
	for _, e := range items {
		conns = append(conns, e.conn)
	}

	return conns
}
