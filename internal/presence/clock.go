package presence

import "time"

// Timer is a one-shot timer handle. Stop reports whether the timer was
// stopped before firing.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the grace scheduler is testable with a fake
// clock instead of inline sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the runtime timers.
func SystemClock() Clock { return systemClock{} }
