package interfaces

import "time"

// CounterStore is the external fixed-window counter collaborator backing the
// rate limiter. Implementations own window bookkeeping: an expired window
// reads as zero and restarts on the next increment.
type CounterStore interface {
	// Peek returns the current count for key without incrementing.
	Peek(key string) (int, error)

	// IncrementAndGet increments the counter for key and returns the new
	// count, opening a fresh window of the given length if none is active.
	IncrementAndGet(key string, window time.Duration) (int, error)
}
