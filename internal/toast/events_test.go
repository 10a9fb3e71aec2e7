package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chirp/internal/core/notify"
)

func TestSubscribe_receives_snapshots(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec := record(d)

	id, err := d.Notify(notify.Data{Title: "hello"})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, EventCreated, ev.Kind)
	assert.Equal(t, id, ev.Notification.ID)
	assert.Equal(t, notify.StatusVisible, ev.Notification.Status)
}

func TestSubscribe_removed_event_carries_removed_status(t *testing.T) {
	d, clock := newTestDispatcher(t)
	rec := record(d)

	id, _ := d.Notify(notify.Data{Title: "bye"})
	d.Dismiss(id)
	clock.Advance(exitDelay)

	require.Len(t, rec.events, 3)
	assert.Equal(t, EventRemoved, rec.events[2].Kind)
	assert.Equal(t, notify.StatusRemoved, rec.events[2].Notification.Status)
}

func TestSubscribe_unsubscribe(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var calls int
	unsubscribe := d.Subscribe(func(Event) { calls++ })

	_, _ = d.Notify(notify.Data{Title: "one"})
	unsubscribe()
	unsubscribe()
	_, _ = d.Notify(notify.Data{Title: "two"})

	assert.Equal(t, 1, calls)
}

func TestSubscribe_reentrant_calls_keep_order(t *testing.T) {
	d, _ := newTestDispatcher(t)

	// A subscriber that dismisses every notification as soon as it appears.
	d.Subscribe(func(e Event) {
		if e.Kind == EventCreated {
			d.Dismiss(e.Notification.ID)
		}
	})
	rec := record(d)

	id, err := d.Notify(notify.Data{Title: "fleeting"})
	require.NoError(t, err)

	assert.Equal(t, []EventKind{EventCreated, EventDismissing}, rec.kinds(id))
	assert.Equal(t, notify.StatusDismissing, status(t, d, id))
}

func TestSubscribe_panicking_subscriber_is_isolated(t *testing.T) {
	d, clock := newTestDispatcher(t)

	d.Subscribe(func(Event) { panic("subscriber bug") })
	rec := record(d)

	var id string
	assert.NotPanics(t, func() {
		id, _ = d.Notify(notify.Data{Title: "still works", Duration: notify.DurationOf(time.Second)})
	})

	clock.Advance(time.Second + exitDelay)
	assert.Equal(t, []EventKind{EventCreated, EventDismissing, EventRemoved}, rec.kinds(id))
}
