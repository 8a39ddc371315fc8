package ratelimit

import (
	"sync"
	"time"
)

// MemoryCounterStore is the in-process CounterStore implementation: a
// fixed-window counter per key. Within a window the count never
// decreases; once the window expires the next increment opens a fresh one.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counterWindow
	now      func() time.Time
}

type counterWindow struct {
	count     int
	expiresAt time.Time
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*counterWindow),
		now:      time.Now,
	}
}

// Peek returns the current count for key; an expired window reads as zero.
func (s *MemoryCounterStore) Peek(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.counters[key]
	if !ok || s.now().After(w.expiresAt) {
		return 0, nil
	}
	return w.count, nil
}

// IncrementAndGet increments the counter for key, opening a fresh window
// of the given length if none is active.
func (s *MemoryCounterStore) IncrementAndGet(key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.counters[key]
	if !ok || now.After(w.expiresAt) {
		s.counters[key] = &counterWindow{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}
	w.count++
	return w.count, nil
}

// Cleanup removes expired windows; call periodically to bound memory.
func (s *MemoryCounterStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, w := range s.counters {
		if now.After(w.expiresAt) {
			delete(s.counters, key)
		}
	}
}
