package room

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"roomchat/internal/session"
)

type sentEvent struct {
	event string
	data  any
}

type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
	fail   bool
}

func (f *fakeSender) Send(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.events = append(f.events, sentEvent{event: event, data: data})
	return nil
}

func (f *fakeSender) received() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.events...)
}

type fakeResolver struct {
	senders map[string]*fakeSender
}

func (f *fakeResolver) Resolve(connID string) (Sender, bool) {
	s, ok := f.senders[connID]
	if !ok {
		return nil, false
	}
	return s, true
}

func setup(t *testing.T) (*Registry, *session.Registry, *fakeResolver) {
	t.Helper()
	sessions := session.NewRegistry()
	resolver := &fakeResolver{senders: make(map[string]*fakeSender)}
	return NewRegistry(sessions, resolver), sessions, resolver
}

func join(t *testing.T, sessions *session.Registry, resolver *fakeResolver, connID, userID, roomCode string) *fakeSender {
	t.Helper()
	sessions.Register(connID, userID, userID)
	require.NoError(t, sessions.SetRoom(connID, roomCode))
	sender := &fakeSender{}
	resolver.senders[connID] = sender
	return sender
}

func TestRegistry_BroadcastReachesExactlyCurrentMembers(t *testing.T) {
	req := require.New(t)
	rooms, sessions, resolver := setup(t)

	alice := join(t, sessions, resolver, "conn-a", "alice", "ROOM1")
	bob := join(t, sessions, resolver, "conn-b", "bob", "ROOM1")
	carol := join(t, sessions, resolver, "conn-c", "carol", "ROOM2")

	rooms.Broadcast("ROOM1", "receive_message", "hello")

	req.Len(alice.received(), 1)
	req.Len(bob.received(), 1)
	req.Empty(carol.received(), "members of other rooms must not receive the event")
}

func TestRegistry_BroadcastSkipsDepartedMembers(t *testing.T) {
	req := require.New(t)
	rooms, sessions, resolver := setup(t)

	alice := join(t, sessions, resolver, "conn-a", "alice", "ROOM1")
	bob := join(t, sessions, resolver, "conn-b", "bob", "ROOM1")

	// Bob leaves before the broadcast; membership is re-read at send time
	req.NoError(sessions.SetRoom("conn-b", ""))
	rooms.Broadcast("ROOM1", "receive_message", "hello")

	req.Len(alice.received(), 1)
	req.Empty(bob.received())
}

func TestRegistry_BroadcastExceptExcludesActor(t *testing.T) {
	req := require.New(t)
	rooms, sessions, resolver := setup(t)

	alice := join(t, sessions, resolver, "conn-a", "alice", "ROOM1")
	bob := join(t, sessions, resolver, "conn-b", "bob", "ROOM1")

	rooms.BroadcastExcept("ROOM1", "conn-a", "user_joined", nil)

	req.Empty(alice.received())
	req.Len(bob.received(), 1)
	req.Equal("user_joined", bob.received()[0].event)
}

func TestRegistry_BroadcastContinuesPastFailures(t *testing.T) {
	req := require.New(t)
	rooms, sessions, resolver := setup(t)

	alice := join(t, sessions, resolver, "conn-a", "alice", "ROOM1")
	alice.fail = true
	bob := join(t, sessions, resolver, "conn-b", "bob", "ROOM1")

	rooms.Broadcast("ROOM1", "receive_message", "hello")

	req.Len(bob.received(), 1)
}

func TestRegistry_MembersOfDerivedFromSessions(t *testing.T) {
	req := require.New(t)
	rooms, sessions, resolver := setup(t)

	join(t, sessions, resolver, "conn-a", "alice", "ROOM1")
	join(t, sessions, resolver, "conn-b", "bob", "ROOM1")

	req.ElementsMatch([]string{"conn-a", "conn-b"}, rooms.MembersOf("ROOM1"))
	req.Empty(rooms.MembersOf("GONE"), "a room with no members does not exist")
}
