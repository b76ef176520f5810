package room

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

// fakeConn records received events; Send can be told to fail.
type fakeConn struct {
	id   string
	fail bool

	mu     sync.Mutex
	events []Event
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (that *fakeConn) ID() string { return that.id }

func (that *fakeConn) Send(event Event) error {
	if that.fail {
		return errors.New("send failed")
	}

	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, event)

	return nil
}

func (that *fakeConn) received() []Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]Event(nil), that.events...)
}

func TestManager_Join(t *testing.T) {
	t.Run("First two joiners get the player roles in order", func(t *testing.T) {
		manager := NewManager(false)

		roleA, err := manager.Join("GameSession_1", newFakeConn("a"))
		require.NoError(t, err)
		roleB, err := manager.Join("GameSession_1", newFakeConn("b"))
		require.NoError(t, err)

		assert.Equal(t, RoleX, roleA)
		assert.Equal(t, RoleO, roleB)
	})

	t.Run("Third joiner becomes an observer when capacity is not enforced", func(t *testing.T) {
		manager := NewManager(false)

		_, err := manager.Join("GameSession_1", newFakeConn("a"))
		require.NoError(t, err)
		_, err = manager.Join("GameSession_1", newFakeConn("b"))
		require.NoError(t, err)

		role, err := manager.Join("GameSession_1", newFakeConn("c"))
		require.NoError(t, err)
		assert.Equal(t, RoleObserver, role)
		assert.False(t, role.CanMove())
		assert.Empty(t, role.Mark())
	})

	t.Run("Third joiner is rejected when capacity is enforced", func(t *testing.T) {
		manager := NewManager(true)

		_, err := manager.Join("GameSession_1", newFakeConn("a"))
		require.NoError(t, err)
		_, err = manager.Join("GameSession_1", newFakeConn("b"))
		require.NoError(t, err)

		_, err = manager.Join("GameSession_1", newFakeConn("c"))
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, 2, manager.Size("GameSession_1"))
	})

	t.Run("Rejoining returns the original role", func(t *testing.T) {
		manager := NewManager(false)
		conn := newFakeConn("a")

		first, err := manager.Join("GameSession_1", conn)
		require.NoError(t, err)
		again, err := manager.Join("GameSession_1", conn)
		require.NoError(t, err)

		assert.Equal(t, first, again)
		assert.Equal(t, 1, manager.Size("GameSession_1"))
	})

	t.Run("Rooms are independent across sessions", func(t *testing.T) {
		manager := NewManager(false)

		roleA, err := manager.Join("GameSession_1", newFakeConn("a"))
		require.NoError(t, err)
		roleB, err := manager.Join("GameSession_2", newFakeConn("b"))
		require.NoError(t, err)

		assert.Equal(t, RoleX, roleA)
		assert.Equal(t, RoleX, roleB)
	})
}

func TestManager_Leave(t *testing.T) {
	t.Run("Leaving shrinks membership but does not free the role", func(t *testing.T) {
		// Given: X and O seated
		manager := NewManager(false)
		connA := newFakeConn("a")

		_, err := manager.Join("GameSession_1", connA)
		require.NoError(t, err)
		_, err = manager.Join("GameSession_1", newFakeConn("b"))
		require.NoError(t, err)

		// When: X leaves and a newcomer joins
		manager.Leave("GameSession_1", connA)
		role, err := manager.Join("GameSession_1", newFakeConn("c"))

		// Then: the newcomer is an observer, X's seat stays burned
		require.NoError(t, err)
		assert.Equal(t, RoleObserver, role)

		_, ok := manager.Role("GameSession_1", connA)
		assert.False(t, ok)
	})

	t.Run("LeaveAll removes a connection from every room", func(t *testing.T) {
		manager := NewManager(false)
		conn := newFakeConn("a")

		_, err := manager.Join("GameSession_1", conn)
		require.NoError(t, err)
		_, err = manager.Join("GameSession_2", conn)
		require.NoError(t, err)

		left := manager.LeaveAll(conn)

		assert.ElementsMatch(t, []string{"GameSession_1", "GameSession_2"}, left)
		assert.Equal(t, 0, manager.Size("GameSession_1"))
		assert.Equal(t, 0, manager.Size("GameSession_2"))
	})
}

func TestManager_Broadcast(t *testing.T) {
	t.Run("Every member receives the event", func(t *testing.T) {
		manager := NewManager(false)
		conns := []*fakeConn{newFakeConn("a"), newFakeConn("b"), newFakeConn("c")}
		for _, conn := range conns {
			_, err := manager.Join("GameSession_1", conn)
			require.NoError(t, err)
		}

		event := Event{Action: "game:update", Payload: "state"}
		manager.Broadcast("GameSession_1", event)

		for _, conn := range conns {
			require.Len(t, conn.received(), 1)
			assert.Equal(t, event, conn.received()[0])
		}
	})

	t.Run("BroadcastExcept skips the excluded connection", func(t *testing.T) {
		manager := NewManager(false)
		connA := newFakeConn("a")
		connB := newFakeConn("b")
		for _, conn := range []*fakeConn{connA, connB} {
			_, err := manager.Join("GameSession_1", conn)
			require.NoError(t, err)
		}

		manager.BroadcastExcept("GameSession_1", connA, Event{Action: "game:joined"})

		assert.Empty(t, connA.received())
		assert.Len(t, connB.received(), 1)
	})

	t.Run("One failing member does not block the rest", func(t *testing.T) {
		manager := NewManager(false)
		broken := newFakeConn("a")
		broken.fail = true
		healthy := newFakeConn("b")
		for _, conn := range []*fakeConn{broken, healthy} {
			_, err := manager.Join("GameSession_1", conn)
			require.NoError(t, err)
		}

		manager.Broadcast("GameSession_1", Event{Action: "game:update"})

		assert.Len(t, healthy.received(), 1)
	})

	t.Run("Broadcast to an unknown session is a no-op", func(t *testing.T) {
		manager := NewManager(false)
		manager.Broadcast("GameSession_404", Event{Action: "game:update"})
	})
}
