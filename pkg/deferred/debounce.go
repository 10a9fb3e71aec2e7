package deferred

import (
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/chirp/pkg/timer"
)

// Debouncer collapses bursts of Trigger calls into one trailing execution of
// its action, using the argument of the last Trigger before a quiet period of
// at least delay.
type Debouncer[T any] struct {
	action func(T) error
	delay  time.Duration
	opts   options

	mu      sync.Mutex
	pending *timer.Handle
	gen     uint64
	last    T
}

// NewDebouncer returns a debouncer for action. delay must not be negative.
func NewDebouncer[T any](action func(T) error, delay time.Duration, opts ...Option) (*Debouncer[T], error) {
	if action == nil {
		return nil, fmt.Errorf("%w: debounce action is nil", ErrInvalidArgument)
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: debounce delay %s is negative", ErrInvalidArgument, delay)
	}

	return &Debouncer[T]{
		action: action,
		delay:  delay,
		opts:   buildOptions(opts),
	}, nil
}

// Trigger records arg and restarts the quiet-period timer.
func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending.Cancel()
	d.last = arg
	d.gen++
	gen := d.gen
	d.pending = timer.Schedule(d.opts.clock, d.delay, func() { d.fire(gen) })
}

// Cancel drops any pending execution.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending.Cancel()
	d.pending = nil
	d.gen++
	var zero T
	d.last = zero
}

// Pending returns true while an execution is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending.Pending()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// Superseded by a later Trigger or Cancel that lost the race to Stop.
		d.mu.Unlock()
		return
	}
	arg := d.last
	d.pending = nil
	var zero T
	d.last = zero
	d.mu.Unlock()

	if err := runAction(func() error { return d.action(arg) }); err != nil {
		d.report(err)
	}
}

func (d *Debouncer[T]) report(err error) {
	if d.opts.onError != nil {
		d.opts.onError(err)
		return
	}
	d.opts.log.Warn().Err(err).Msg("debounced action failed")
}

// runAction runs fn, converting a returned error or a panic into *ActionError.
func runAction(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ActionError{Panic: r}
		}
	}()

	if e := fn(); e != nil {
		return &ActionError{Err: e}
	}
	return nil
}
