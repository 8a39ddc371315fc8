package room

import (
	"log"

	"roomchat/internal/session"
)

// Sender delivers one outbound event to a single connection.
type Sender interface {
	Send(event string, data any) error
}

// Resolver maps a connection ID to its live sender. The gateway's
// connection table satisfies this.
type Resolver interface {
	Resolve(connID string) (Sender, bool)
}

// Registry addresses broadcasts by room code. It is a thin projection over
// the session registry: a room exists precisely while it has at least one
// member, so there is no second source of truth to drift.
type Registry struct {
	sessions *session.Registry
	conns    Resolver
}

// NewRegistry creates a room registry over the given session registry and
// connection resolver.
func NewRegistry(sessions *session.Registry, conns Resolver) *Registry {
	return &Registry{
		sessions: sessions,
		conns:    conns,
	}
}

// MembersOf returns the connection IDs currently subscribed to a room,
// reconstructed fresh from session registry state.
func (r *Registry) MembersOf(roomCode string) []string {
	return r.sessions.ConnectionsInRoom(roomCode)
}

// Broadcast sends an event to every member of a room. Delivery failures to
// individual connections are logged and do not stop delivery to the rest.
func (r *Registry) Broadcast(roomCode, event string, data any) {
	r.broadcast(roomCode, "", event, data)
}

// BroadcastExcept sends an event to every member of a room but the given
// connection. Used for peer-facing join/leave notices so the acting client
// gets its own distinct confirmation event instead.
func (r *Registry) BroadcastExcept(roomCode, exceptConnID, event string, data any) {
	r.broadcast(roomCode, exceptConnID, event, data)
}

func (r *Registry) broadcast(roomCode, exceptConnID, event string, data any) {
	for _, connID := range r.sessions.ConnectionsInRoom(roomCode) {
		if connID == exceptConnID {
			continue
		}
		sender, ok := r.conns.Resolve(connID)
		if !ok {
			continue
		}
		if err := sender.Send(event, data); err != nil {
			log.Printf("Failed to deliver %s to connection %s: %v", event, connID, err)
		}
	}
}
