// Package deferred provides debounce and throttle controllers. Each controller
// owns at most one pending timer and exposes a single Trigger entry point.
package deferred

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/chirp/pkg/timer"
)

// ErrInvalidArgument is returned by the constructors for a nil action or a
// negative interval.
var ErrInvalidArgument = errors.New("invalid argument")

// ActionError wraps a failure (returned error or recovered panic) from a
// caller-supplied action.
type ActionError struct {
	Err   error
	Panic any
}

func (e *ActionError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("action panicked: %v", e.Panic)
	}
	return "action failed: " + e.Err.Error()
}

func (e *ActionError) Unwrap() error { return e.Err }

type options struct {
	clock   timer.Clock
	onError func(error)
	log     zerolog.Logger
}

// Option configures a Debouncer or Throttler.
type Option func(*options)

// WithClock sets the clock used to arm timers. Defaults to timer.System.
func WithClock(c timer.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithErrorHandler receives failures of debounced actions. Throttled actions
// report failures to the Trigger caller instead.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithLogger sets the logger used when no error handler is configured.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		clock: timer.System,
		log:   log.With().Str("cmp", "deferred").Logger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = timer.System
	}
	return o
}
