package session

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"roomchat/pkg/types"
)

// Registry tracks live sessions keyed by connection ID with a secondary
// index by user ID. At most one session exists per connection ID, and the
// replace-on-register rule keeps at most one live session per user ID.
//
// The registry is an injected component, never a package-level singleton,
// so each test constructs one with isolated state.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*types.Session
	byUser map[string]string // userID -> connectionID
	now    func() time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*types.Session),
		byUser: make(map[string]string),
		now:    time.Now,
	}
}

// Register binds a connection to an identity. If the user already has a
// live session it is atomically superseded: the old connection entry is
// removed and the new session carries over its current room. The returned
// prevConnID is the superseded connection ID, or "" for a fresh session.
func (r *Registry) Register(connID, userID, displayName string) (types.Session, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevConnID := ""
	carriedRoom := ""
	if oldConnID, ok := r.byUser[userID]; ok {
		if old, ok := r.byConn[oldConnID]; ok {
			carriedRoom = old.CurrentRoom
			delete(r.byConn, oldConnID)
		}
		prevConnID = oldConnID
	}

	sess := &types.Session{
		ConnectionID: connID,
		UserID:       userID,
		DisplayName:  displayName,
		CurrentRoom:  carriedRoom,
		ConnectedAt:  r.now(),
	}
	r.byConn[connID] = sess
	r.byUser[userID] = connID

	return *sess, prevConnID
}

// Get returns the session for a connection ID.
func (r *Registry) Get(connID string) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.byConn[connID]
	if !ok {
		return types.Session{}, false
	}
	return *sess, true
}

// FindByUserID returns the live session for a user, if any. O(1) via the
// secondary index.
func (r *Registry) FindByUserID(userID string) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.byUser[userID]
	if !ok {
		return types.Session{}, false
	}
	sess, ok := r.byConn[connID]
	if !ok {
		return types.Session{}, false
	}
	return *sess, true
}

// Remove unconditionally deletes the mapping for a connection ID. Called
// immediately on disconnect, before the grace timer is armed, so a
// reconnecting identity is never blocked by its own stale entry. Idempotent.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)

	// Only clear the user index if it still points at this connection;
	// a superseding registration may have repointed it already.
	if r.byUser[sess.UserID] == connID {
		delete(r.byUser, sess.UserID)
	}
}

// SetRoom mutates the current room for a connection. An empty room code
// means the session is in no room.
func (r *Registry) SetRoom(connID, roomCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byConn[connID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.CurrentRoom = roomCode
	return nil
}

// ConnectionsInRoom projects the connection IDs whose session is currently
// in the given room. Membership is always derived fresh from registry
// state, never cached.
func (r *Registry) ConnectionsInRoom(roomCode string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(lo.Values(r.byConn), func(s *types.Session, _ int) (string, bool) {
		return s.ConnectionID, s.InRoom(roomCode)
	})
}

// Rooms returns the distinct room codes with at least one member.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := lo.FilterMap(lo.Values(r.byConn), func(s *types.Session, _ int) (string, bool) {
		return s.CurrentRoom, s.CurrentRoom != ""
	})
	return lo.Uniq(codes)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
