// Package timer wraps single-shot deferred callbacks behind a pluggable Clock
// so that every delayed execution in chirp can be cancelled explicitly and
// driven deterministically in tests.
package timer

import (
	"sync"
	"time"
)

// Stopper is the cancellation half of a platform timer.
type Stopper interface {
	Stop() bool
}

// Clock is the time source behind every deferred callback.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// System is the wall clock.
var System Clock = systemClock{}

type state uint8

const (
	stateArmed state = iota
	stateFired
	stateCancelled
)

// Handle is bound to exactly one pending callback.
type Handle struct {
	mu    sync.Mutex
	state state
	stop  Stopper
}

// Schedule arms fn to run once after delay on the given clock. A delay of
// zero (or less) still defers fn to the clock's next opportunity; fn is never
// invoked synchronously.
func Schedule(c Clock, delay time.Duration, fn func()) *Handle {
	if c == nil {
		c = System
	}
	if delay < 0 {
		delay = 0
	}

	h := &Handle{}

	h.mu.Lock()
	h.stop = c.AfterFunc(delay, func() {
		h.mu.Lock()
		if h.state != stateArmed {
			h.mu.Unlock()
			return
		}
		h.state = stateFired
		h.mu.Unlock()

		fn()
	})
	h.mu.Unlock()

	return h
}

// Cancel prevents the callback from running. It reports whether the call
// stopped a pending callback; cancelling a nil, fired or cancelled handle is
// a no-op that returns false.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != stateArmed {
		return false
	}
	h.state = stateCancelled
	if h.stop != nil {
		h.stop.Stop()
	}
	return true
}

// Pending returns true while the callback has neither fired nor been cancelled.
func (h *Handle) Pending() bool {
	if h == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == stateArmed
}
