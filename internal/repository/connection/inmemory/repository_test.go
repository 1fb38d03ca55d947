package inmemory

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id string
}

func (m *mockConn) Id() string               { return m.id }
func (m *mockConn) Send(_ domain.Event) error { return nil }
func (m *mockConn) Close() error             { return nil }

func TestRepo_AddRemove(t *testing.T) {
	r := NewRepo(slog.Default())
	conn := &mockConn{id: "c1"}

	require.NoError(t, r.Add(conn))
	assert.ErrorIs(t, r.Add(conn), connection.ErrAlreadyExists)
	assert.Equal(t, 1, r.Count())

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	require.NoError(t, r.Bind("c1", "ABC123"))
	removed, roomId, err := r.Remove("c1")
	require.NoError(t, err)
	assert.Same(t, conn, removed)
	assert.Equal(t, "ABC123", roomId)

	_, _, err = r.Remove("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.Get("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	assert.Equal(t, 0, r.Count())
}

func TestRepo_RoomBinding(t *testing.T) {
	r := NewRepo(slog.Default())
	require.NoError(t, r.Add(&mockConn{id: "c1"}))

	roomId, err := r.RoomOf("c1")
	require.NoError(t, err)
	assert.Empty(t, roomId)

	require.NoError(t, r.Bind("c1", "ABC123"))
	roomId, err = r.RoomOf("c1")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", roomId)

	assert.False(t, r.Unbind("c1", "XYZ999"), "unbind from another room must not clear binding")
	roomId, _ = r.RoomOf("c1")
	assert.Equal(t, "ABC123", roomId)

	assert.True(t, r.Unbind("c1", "ABC123"))
	assert.False(t, r.Unbind("c1", "ABC123"))
	roomId, _ = r.RoomOf("c1")
	assert.Empty(t, roomId)

	assert.ErrorIs(t, r.Bind("unknown", "ABC123"), connection.ErrNotFound)
	_, err = r.RoomOf("unknown")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestRepo_BindAfterRemove(t *testing.T) {
	r := NewRepo(slog.Default())
	require.NoError(t, r.Add(&mockConn{id: "c1"}))

	e, ok := r.conns.Get("c1")
	require.True(t, ok)
	_, _, err := r.Remove("c1")
	require.NoError(t, err)

	// a bind that looked the entry up before removal must not revive it
	e.mu.Lock()
	assert.True(t, e.removed)
	e.mu.Unlock()
	assert.ErrorIs(t, r.Bind("c1", "ABC123"), connection.ErrNotFound)
}

func TestRepo_ConcurrentAdd(t *testing.T) {
	r := NewRepo(slog.Default())

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = r.Add(&mockConn{id: id})
			}(id)
		}
	}
	wg.Wait()

	assert.Equal(t, 4, r.Count())
	assert.Len(t, r.All(), 4)
}
