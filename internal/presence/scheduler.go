package presence

import (
	"log"
	"sync"
	"time"

	"roomchat/pkg/types"
)

// SessionIndex is the reverse lookup the scheduler needs to decide whether
// a disconnect turned out to be a genuine departure.
type SessionIndex interface {
	FindByUserID(userID string) (types.Session, bool)
}

// Broadcaster delivers a presence event to a room.
type Broadcaster interface {
	Broadcast(roomCode, event string, data any)
}

// Scheduler absorbs transient disconnects: instead of announcing "user
// left" immediately, it arms a one-shot grace timer per user and only
// emits the departure if no session for that user exists when the timer
// fires. Reconnection within the grace window cancels the timer and no
// departure event is ever emitted for that disconnect.
type Scheduler struct {
	mu       sync.Mutex
	pending  map[string]*pendingOffline
	sessions SessionIndex
	rooms    Broadcaster
	clock    Clock
	grace    time.Duration
}

// pendingOffline is the per-user deferred departure. At most one exists
// per user ID at any time.
type pendingOffline struct {
	userID        string
	displayName   string
	lastKnownRoom string
	fireAt        time.Time
	cancelled     bool
	timer         Timer
}

// NewScheduler creates a grace scheduler with the given grace period.
func NewScheduler(sessions SessionIndex, rooms Broadcaster, clock Clock, grace time.Duration) *Scheduler {
	return &Scheduler{
		pending:  make(map[string]*pendingOffline),
		sessions: sessions,
		rooms:    rooms,
		clock:    clock,
		grace:    grace,
	}
}

// Arm schedules the deferred departure notice for a user. Any pending
// entry for the same user is cancelled first, so rapid
// disconnect/reconnect/disconnect cycles never leak or double-fire a
// timer.
func (s *Scheduler) Arm(userID, displayName, lastKnownRoom string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(userID)

	p := &pendingOffline{
		userID:        userID,
		displayName:   displayName,
		lastKnownRoom: lastKnownRoom,
		fireAt:        s.clock.Now().Add(s.grace),
	}
	p.timer = s.clock.AfterFunc(s.grace, func() { s.fire(p) })
	s.pending[userID] = p
}

// Cancel invalidates the pending timer for a user. Safe to call when no
// timer is pending; after Cancel returns the timer can no longer fire even
// if its callback was already scheduled.
func (s *Scheduler) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(userID)
}

func (s *Scheduler) cancelLocked(userID string) {
	p, ok := s.pending[userID]
	if !ok {
		return
	}
	p.cancelled = true
	p.timer.Stop()
	delete(s.pending, userID)
}

// Resume cancels the pending departure for a user and reports the room
// the user was last known in, so a reconnecting session can be put back
// where it left off. ok is false when no departure was pending.
func (s *Scheduler) Resume(userID string) (lastKnownRoom string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.pending[userID]
	if !exists {
		return "", false
	}
	p.cancelled = true
	p.timer.Stop()
	delete(s.pending, userID)
	return p.lastKnownRoom, true
}

// PendingCount returns the number of armed grace timers.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fire runs when a grace timer elapses. The cancelled flag is checked
// under the lock so a concurrent Cancel always wins.
func (s *Scheduler) fire(p *pendingOffline) {
	s.mu.Lock()
	if p.cancelled {
		s.mu.Unlock()
		return
	}
	if s.pending[p.userID] == p {
		delete(s.pending, p.userID)
	}
	s.mu.Unlock()

	// The user may have reconnected on any connection during the grace
	// window; membership is re-read at fire time, never assumed.
	if _, ok := s.sessions.FindByUserID(p.userID); ok {
		return
	}

	log.Printf("User went offline: user_id=%s room=%s", p.userID, p.lastKnownRoom)
	if p.lastKnownRoom != "" {
		s.rooms.Broadcast(p.lastKnownRoom, types.EventUserLeft, types.PresencePayload{
			Nickname: p.displayName,
		})
	}
}
