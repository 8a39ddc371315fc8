package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_FreshSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	sess, prev := registry.Register("conn-1", "alice", "Alice")

	req.Empty(prev)
	req.Equal("conn-1", sess.ConnectionID)
	req.Equal("alice", sess.UserID)
	req.Equal("Alice", sess.DisplayName)
	req.Empty(sess.CurrentRoom)
	req.Equal(1, registry.Count())
}

func TestRegistry_Register_SupersedesExistingSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice is connected and in a room
	registry.Register("conn-1", "alice", "Alice")
	req.NoError(registry.SetRoom("conn-1", "ROOM1"))

	// When alice registers a second connection
	sess, prev := registry.Register("conn-2", "alice", "Alice")

	// Then the old entry is replaced and the room carries over
	req.Equal("conn-1", prev)
	req.Equal("ROOM1", sess.CurrentRoom)
	req.Equal(1, registry.Count())

	_, ok := registry.Get("conn-1")
	req.False(ok)

	found, ok := registry.FindByUserID("alice")
	req.True(ok)
	req.Equal("conn-2", found.ConnectionID)
}

func TestRegistry_AtMostOneLiveSessionPerUser(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("conn-1", "alice", "Alice")
	registry.Register("conn-2", "alice", "Alice")
	registry.Register("conn-3", "alice", "Alice")

	req.Equal(1, registry.Count())
	found, ok := registry.FindByUserID("alice")
	req.True(ok)
	req.Equal("conn-3", found.ConnectionID)
}

func TestRegistry_Remove_IsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("conn-1", "alice", "Alice")
	registry.Remove("conn-1")
	registry.Remove("conn-1")

	req.Equal(0, registry.Count())
	_, ok := registry.FindByUserID("alice")
	req.False(ok)
}

func TestRegistry_Remove_DoesNotClearSupersededIndex(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given alice reconnected, so conn-1 is stale
	registry.Register("conn-1", "alice", "Alice")
	registry.Register("conn-2", "alice", "Alice")

	// When the stale connection finally disconnects
	registry.Remove("conn-1")

	// Then the live session is untouched
	found, ok := registry.FindByUserID("alice")
	req.True(ok)
	req.Equal("conn-2", found.ConnectionID)
}

func TestRegistry_SetRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("conn-1", "alice", "Alice")
	req.NoError(registry.SetRoom("conn-1", "ROOM1"))

	sess, ok := registry.Get("conn-1")
	req.True(ok)
	req.Equal("ROOM1", sess.CurrentRoom)

	req.NoError(registry.SetRoom("conn-1", ""))
	sess, _ = registry.Get("conn-1")
	req.Empty(sess.CurrentRoom)

	req.ErrorIs(registry.SetRoom("conn-missing", "ROOM1"), ErrSessionNotFound)
}

func TestRegistry_ConnectionsInRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("conn-1", "alice", "Alice")
	registry.Register("conn-2", "bob", "Bob")
	registry.Register("conn-3", "carol", "Carol")
	req.NoError(registry.SetRoom("conn-1", "ROOM1"))
	req.NoError(registry.SetRoom("conn-2", "ROOM1"))
	req.NoError(registry.SetRoom("conn-3", "ROOM2"))

	members := registry.ConnectionsInRoom("ROOM1")
	req.ElementsMatch([]string{"conn-1", "conn-2"}, members)

	req.Empty(registry.ConnectionsInRoom("EMPTY"))
	req.ElementsMatch([]string{"ROOM1", "ROOM2"}, registry.Rooms())
}
