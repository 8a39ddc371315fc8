package ratelimit

import (
	"log"
	"time"

	"roomchat/pkg/interfaces"
)

// Limiter answers "is this user over quota" for a fixed send window. It
// consults an external counter store; the default policy is 10 accepted
// sends per 60 second window.
//
// Availability over strictness: when no counter store is configured, or
// the store errors, the limiter fails open and never throttles. Chat
// availability must not depend on a secondary store's uptime.
type Limiter struct {
	counters  interfaces.CounterStore // nil when rate limiting is disabled
	window    time.Duration
	threshold int
}

// NewLimiter creates a limiter over the given counter store. Passing a nil
// store is the explicit "rate limiting disabled" configuration.
func NewLimiter(counters interfaces.CounterStore, window time.Duration, threshold int) *Limiter {
	return &Limiter{
		counters:  counters,
		window:    window,
		threshold: threshold,
	}
}

// Window returns the configured window length, used for retry-after hints.
func (l *Limiter) Window() time.Duration { return l.window }

// IsThrottled reports whether the user has exhausted the current window.
// Accepted sends increment the counter; throttled sends are only peeked,
// never counted, so a spamming client recovers as soon as a fresh window
// opens.
func (l *Limiter) IsThrottled(userID string) bool {
	if l.counters == nil {
		return false
	}

	key := counterKey(userID)
	count, err := l.counters.Peek(key)
	if err != nil {
		log.Printf("Counter store peek failed, failing open: user_id=%s err=%v", userID, err)
		return false
	}
	if count >= l.threshold {
		return true
	}

	if _, err := l.counters.IncrementAndGet(key, l.window); err != nil {
		log.Printf("Counter store increment failed, failing open: user_id=%s err=%v", userID, err)
	}
	return false
}

func counterKey(userID string) string {
	return "chat:sends:" + userID
}
