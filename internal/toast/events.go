package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chirp/internal/core/notify"
)

// EventKind names a lifecycle transition.
type EventKind string

const (
	EventCreated    EventKind = "created"
	EventUpdated    EventKind = "updated"
	EventDismissing EventKind = "dismissing"
	EventRemoved    EventKind = "removed"
)

// Event reports a transition together with a copy of the record as it was
// right after the transition. For EventRemoved the copy has StatusRemoved.
type Event struct {
	Kind         EventKind
	Notification notify.Notification
	At           time.Time
}

// Subscriber is a callback invoked for every event.
type Subscriber func(Event)

type subscription struct {
	id uint64
	fn Subscriber
}

// fanout delivers events in the order they were queued. Events are queued by
// the scheduler while it holds its lock and drained after it releases it, so
// subscribers may call back into the dispatcher.
type fanout struct {
	log zerolog.Logger

	mu       sync.Mutex
	subs     []subscription
	nextID   uint64
	queue    []Event
	draining bool
}

func (f *fanout) subscribe(fn Subscriber) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscription{id: id, fn: fn})

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *fanout) push(ev Event) {
	f.mu.Lock()
	f.queue = append(f.queue, ev)
	f.mu.Unlock()
}

// drain delivers queued events until the queue is empty. If another goroutine
// (or an outer frame of this one) is already draining, drain returns at once
// and that drainer delivers the new events.
func (f *fanout) drain() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true

	for len(f.queue) > 0 {
		ev := f.queue[0]
		f.queue = f.queue[1:]
		subs := make([]subscription, len(f.subs))
		copy(subs, f.subs)
		f.mu.Unlock()

		for _, s := range subs {
			f.deliver(s.fn, ev)
		}

		f.mu.Lock()
	}

	f.queue = nil
	f.draining = false
	f.mu.Unlock()
}

func (f *fanout) deliver(fn Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().
				Str("event", string(ev.Kind)).
				Str("id", ev.Notification.ID).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber panicked")
		}
	}()
	fn(ev)
}
