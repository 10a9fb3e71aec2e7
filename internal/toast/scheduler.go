package toast

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chirp/internal/core/notify"
	"github.com/colonyops/chirp/pkg/timer"
)

// ErrClosed is returned by Notify after the dispatcher has been closed.
var ErrClosed = errors.New("dispatcher closed")

// slot tracks the single timer a notification may own. gen increases every
// time the timer is re-armed or cancelled so that a callback which lost a
// cancel race can recognise itself as stale.
type slot struct {
	timer *timer.Handle
	gen   uint64
}

// scheduler owns the entity store and every per-notification timer. All
// state lives behind mu; timer callbacks take the same lock, so no two
// operations ever interleave.
type scheduler struct {
	clock timer.Clock
	log   zerolog.Logger
	newID func() string
	fan   *fanout

	mu       sync.Mutex
	settings Settings
	store    *notify.Store
	slots    map[string]*slot
	closed   bool
}

func newScheduler(clock timer.Clock, settings Settings, newID func() string, log zerolog.Logger) *scheduler {
	return &scheduler{
		clock:    clock,
		log:      log,
		newID:    newID,
		fan:      &fanout{log: log},
		settings: settings,
		store:    notify.NewStore(),
		slots:    make(map[string]*slot),
	}
}

// create inserts a Visible record and arms its expiry timer. It returns the
// new record and the number of older notifications dismissed to honour
// MaxVisible. data must already be validated.
func (s *scheduler) create(data notify.Data) (notify.Notification, int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return notify.Notification{}, 0, ErrClosed
	}

	now := s.clock.Now()
	n := notify.Notification{
		Title:       data.Title,
		Description: data.Description,
		Variant:     data.Variant,
		Duration:    s.settings.DefaultDuration,
		Status:      notify.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if n.Variant == "" {
		n.Variant = notify.VariantDefault
	}
	if data.Duration != nil {
		n.Duration = *data.Duration
	}
	if data.Action != nil {
		a := *data.Action
		n.Action = &a
	}

	// Pending collapses into Visible before anyone can observe it.
	n.Status = notify.StatusVisible
	for {
		n.ID = s.newID()
		if s.store.Insert(n) {
			break
		}
	}
	s.slots[n.ID] = &slot{}
	s.emit(EventCreated, n)

	if !n.Persistent() {
		s.arm(n.ID, n.Duration)
	}

	evicted := 0
	if limit := s.settings.MaxVisible; limit > 0 {
		visible := s.store.IDs(notify.StatusVisible)
		for _, id := range visible[:max(len(visible)-limit, 0)] {
			if s.dismissLocked(id) {
				evicted++
			}
		}
	}

	s.log.Debug().
		Str("id", n.ID).
		Str("variant", string(n.Variant)).
		Dur("duration", n.Duration).
		Msg("notification created")

	created, _ := s.store.Get(n.ID)
	s.mu.Unlock()
	s.fan.drain()

	return created, evicted, nil
}

// update merges p into a Visible record. The expiry timer is re-armed from
// now only when p carries a Duration.
func (s *scheduler) update(id string, p notify.Patch) bool {
	s.mu.Lock()
	rec, ok := s.store.Lookup(id)
	if s.closed || !ok || rec.Status != notify.StatusVisible {
		s.mu.Unlock()
		s.log.Debug().Str("id", id).Msg("update ignored: notification not visible")
		return false
	}

	p.Apply(rec)
	if rec.Variant == "" {
		rec.Variant = notify.VariantDefault
	}
	rec.UpdatedAt = s.clock.Now()

	if p.Duration != nil {
		if rec.Persistent() {
			s.disarm(id)
		} else {
			s.arm(id, rec.Duration)
		}
	}
	s.emit(EventUpdated, *rec)
	s.mu.Unlock()
	s.fan.drain()

	return true
}

// dismiss moves a Visible record to Dismissing.
func (s *scheduler) dismiss(id string) bool {
	s.mu.Lock()
	ok := !s.closed && s.dismissLocked(id)
	s.mu.Unlock()
	s.fan.drain()

	if !ok {
		s.log.Debug().Str("id", id).Msg("dismiss ignored: notification not visible")
	}
	return ok
}

// dismissAll dismisses every Visible record in arrival order.
func (s *scheduler) dismissAll() int {
	s.mu.Lock()
	n := 0
	if !s.closed {
		for _, id := range s.store.IDs(notify.StatusVisible) {
			if s.dismissLocked(id) {
				n++
			}
		}
	}
	s.mu.Unlock()
	s.fan.drain()

	return n
}

// dismissLocked must be called with s.mu held.
func (s *scheduler) dismissLocked(id string) bool {
	rec, ok := s.store.Lookup(id)
	if !ok || rec.Status != notify.StatusVisible {
		return false
	}

	rec.Status = notify.StatusDismissing
	rec.UpdatedAt = s.clock.Now()
	s.arm(id, s.settings.ExitDelay)
	s.emit(EventDismissing, *rec)

	s.log.Debug().Str("id", id).Msg("notification dismissing")
	return true
}

// removeLocked must be called with s.mu held.
func (s *scheduler) removeLocked(id string) {
	rec, ok := s.store.Lookup(id)
	if !ok {
		return
	}

	final := *rec
	final.Status = notify.StatusRemoved
	final.UpdatedAt = s.clock.Now()

	s.disarm(id)
	delete(s.slots, id)
	s.store.Delete(id)
	s.emit(EventRemoved, final)

	s.log.Debug().Str("id", id).Msg("notification removed")
}

// arm replaces the notification's timer. Must be called with s.mu held.
func (s *scheduler) arm(id string, d time.Duration) {
	sl := s.slots[id]
	sl.timer.Cancel()
	sl.gen++
	gen := sl.gen
	sl.timer = timer.Schedule(s.clock, d, func() { s.fire(id, gen) })
}

// disarm cancels the notification's timer. Must be called with s.mu held.
func (s *scheduler) disarm(id string) {
	sl, ok := s.slots[id]
	if !ok {
		return
	}
	sl.timer.Cancel()
	sl.timer = nil
	sl.gen++
}

func (s *scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	sl, ok := s.slots[id]
	if s.closed || !ok || sl.gen != gen {
		s.mu.Unlock()
		return
	}
	sl.timer = nil

	if rec, ok := s.store.Lookup(id); ok {
		switch rec.Status {
		case notify.StatusVisible:
			s.dismissLocked(id)
		case notify.StatusDismissing:
			s.removeLocked(id)
		}
	}
	s.mu.Unlock()
	s.fan.drain()
}

// emit queues an event. Must be called with s.mu held.
func (s *scheduler) emit(kind EventKind, n notify.Notification) {
	if n.Action != nil {
		a := *n.Action
		n.Action = &a
	}
	s.fan.push(Event{Kind: kind, Notification: n, At: s.clock.Now()})
}

func (s *scheduler) get(id string) (notify.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

func (s *scheduler) snapshot() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

func (s *scheduler) configure(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *scheduler) currentSettings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// close cancels every outstanding timer and drops all records.
func (s *scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id := range s.slots {
		s.disarm(id)
	}
	s.slots = make(map[string]*slot)
	s.store.Clear()
}

// pendingTimers returns the number of armed notification timers.
func (s *scheduler) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sl := range s.slots {
		if sl.timer.Pending() {
			n++
		}
	}
	return n
}
