package deferred

import (
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/chirp/pkg/timer"
)

// Throttler executes its action at most once per limit window.
//
// The policy is leading-edge only: the first Trigger of a window runs the
// action synchronously and starts a cooldown; triggers during the cooldown
// are discarded and return the result of the last executed call. A
// suppressed call is never replayed when the cooldown ends.
type Throttler[T, R any] struct {
	action func(T) (R, error)
	limit  time.Duration
	opts   options

	mu       sync.Mutex
	cooldown *timer.Handle
	gen      uint64
	cooling  bool
	last     R
}

// NewThrottler returns a throttler for action. limit must not be negative.
func NewThrottler[T, R any](action func(T) (R, error), limit time.Duration, opts ...Option) (*Throttler[T, R], error) {
	if action == nil {
		return nil, fmt.Errorf("%w: throttle action is nil", ErrInvalidArgument)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: throttle limit %s is negative", ErrInvalidArgument, limit)
	}

	return &Throttler[T, R]{
		action: action,
		limit:  limit,
		opts:   buildOptions(opts),
	}, nil
}

// Trigger runs the action with arg unless a cooldown is active. A failure of
// the action is returned as *ActionError; the cooldown stays armed either way
// and the last successful result is kept.
func (t *Throttler[T, R]) Trigger(arg T) (R, error) {
	t.mu.Lock()
	if t.cooling {
		last := t.last
		t.mu.Unlock()
		return last, nil
	}

	t.cooling = true
	t.gen++
	gen := t.gen
	t.cooldown = timer.Schedule(t.opts.clock, t.limit, func() { t.release(gen) })
	t.mu.Unlock()

	var result R
	err := runAction(func() error {
		r, err := t.action(arg)
		result = r
		return err
	})

	if err == nil {
		t.mu.Lock()
		t.last = result
		t.mu.Unlock()
	}

	return result, err
}

// Ready returns true when the next Trigger would execute the action.
func (t *Throttler[T, R]) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.cooling
}

// Stop cancels the cooldown timer so nothing fires into a torn-down owner.
// The throttler is left ready.
func (t *Throttler[T, R]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cooldown.Cancel()
	t.cooldown = nil
	t.cooling = false
	t.gen++
}

func (t *Throttler[T, R]) release(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return
	}
	t.cooling = false
	t.cooldown = nil
}
