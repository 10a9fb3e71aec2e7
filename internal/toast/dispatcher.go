// Package toast schedules user-facing notifications: it assigns IDs, arms
// auto-dismiss and exit-transition timers and reports every lifecycle
// transition to subscribers.
package toast

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/colonyops/chirp/internal/core/logging"
	"github.com/colonyops/chirp/internal/core/notify"
	"github.com/colonyops/chirp/pkg/deferred"
	"github.com/colonyops/chirp/pkg/timer"
)

const (
	DefaultDuration   = 5 * time.Second
	DefaultExitDelay  = 300 * time.Millisecond

	overflowWarnInterval = time.Second
)

// Notifier is the contract collaborators depend on to raise notifications.
type Notifier interface {
	Notify(data notify.Data) (string, error)
	Update(id string, p notify.Patch) error
	Dismiss(id string)
}

// Settings controls scheduling.
type Settings struct {
	DefaultDuration time.Duration // notify.Forever disables auto-dismiss by default
	ExitDelay       time.Duration // time spent Dismissing before removal
	MaxVisible      int           // 0 means unlimited; a positive limit dismisses the oldest visible
}

// DefaultSettings returns the built-in scheduling settings. The visible
// limit is off, so notifications only leave through expiry or Dismiss.
func DefaultSettings() Settings {
	return Settings{
		DefaultDuration: DefaultDuration,
		ExitDelay:       DefaultExitDelay,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if s.DefaultDuration < 0 && s.DefaultDuration != notify.Forever {
		errs = errs.Append("default_duration", fmt.Errorf("must not be negative, got %s", s.DefaultDuration))
	}
	if s.ExitDelay < 0 {
		errs = errs.Append("exit_delay", fmt.Errorf("must not be negative, got %s", s.ExitDelay))
	}
	if s.MaxVisible < 0 {
		errs = errs.Append("max_visible", fmt.Errorf("must not be negative, got %d", s.MaxVisible))
	}

	if err := errs.ToError(); err != nil {
		return fmt.Errorf("%w: %w", notify.ErrInvalidArgument, err)
	}
	return nil
}

type dispatcherOptions struct {
	clock timer.Clock
	log   zerolog.Logger
	newID func() string
}

// Option configures a Dispatcher.
type Option func(*dispatcherOptions)

// WithClock sets the clock behind every timer. Defaults to timer.System.
func WithClock(c timer.Clock) Option {
	return func(o *dispatcherOptions) { o.clock = c }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *dispatcherOptions) { o.log = l }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *dispatcherOptions) { o.newID = fn }
}

// Dispatcher is the notification facade. It is safe for concurrent use;
// every call serializes through a single scheduler.
//
// Subscribers run outside the scheduler lock, in transition order. When
// several goroutines mutate at once, whichever is already delivering events
// also delivers the others', so an event may reach subscribers after the
// call that caused it has returned.
type Dispatcher struct {
	sched    *scheduler
	log      zerolog.Logger
	overflow *deferred.Throttler[int, struct{}]
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher builds a dispatcher. The returned dispatcher must be closed
// to release its timers.
func NewDispatcher(settings Settings, opts ...Option) (*Dispatcher, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	o := dispatcherOptions{
		clock: timer.System,
		log:   logging.Component("toast"),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dispatcher{
		sched: newScheduler(o.clock, settings, o.newID, o.log),
		log:   o.log,
	}

	overflow, err := deferred.NewThrottler(d.warnOverflow, overflowWarnInterval, deferred.WithClock(o.clock))
	if err != nil {
		return nil, err
	}
	d.overflow = overflow

	return d, nil
}

// Notify validates data and shows a new notification, returning its ID.
func (d *Dispatcher) Notify(data notify.Data) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}

	n, evicted, err := d.sched.create(data)
	if err != nil {
		return "", err
	}
	if evicted > 0 {
		_, _ = d.overflow.Trigger(evicted)
	}

	return n.ID, nil
}

// Update merges p into a visible notification. Unknown, dismissing or
// removed IDs are ignored; only a malformed patch is an error.
func (d *Dispatcher) Update(id string, p notify.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}

	d.sched.update(id, p)
	return nil
}

// Dismiss starts the exit transition of a visible notification. Unknown or
// already dismissed IDs are ignored.
func (d *Dispatcher) Dismiss(id string) {
	d.sched.dismiss(id)
}

// DismissAll dismisses every visible notification.
func (d *Dispatcher) DismissAll() {
	d.sched.dismissAll()
}

// Get returns a copy of one active notification.
func (d *Dispatcher) Get(id string) (notify.Notification, bool) {
	return d.sched.get(id)
}

// Snapshot returns copies of the active notifications, oldest first.
func (d *Dispatcher) Snapshot() []notify.Notification {
	return d.sched.snapshot()
}

// Subscribe registers fn for every lifecycle event and returns a function
// that removes it.
func (d *Dispatcher) Subscribe(fn Subscriber) (unsubscribe func()) {
	return d.sched.fan.subscribe(fn)
}

// Settings returns the current scheduling settings.
func (d *Dispatcher) Settings() Settings {
	return d.sched.currentSettings()
}

// Configure replaces the scheduling settings. Timers already armed keep
// their deadlines.
func (d *Dispatcher) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	d.sched.configure(settings)
	d.log.Info().
		Dur("default_duration", settings.DefaultDuration).
		Dur("exit_delay", settings.ExitDelay).
		Int("max_visible", settings.MaxVisible).
		Msg("toast settings applied")
	return nil
}

// Close cancels every outstanding timer and drops all notifications.
// Further calls are no-ops; Notify returns ErrClosed.
func (d *Dispatcher) Close() {
	d.sched.close()
	d.overflow.Stop()
}

func (d *Dispatcher) warnOverflow(evicted int) (struct{}, error) {
	d.log.Warn().
		Int("evicted", evicted).
		Int("max_visible", d.sched.currentSettings().MaxVisible).
		Msg("toast stack full, dismissing oldest")
	return struct{}{}, nil
}
