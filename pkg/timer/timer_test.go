package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/chirp/pkg/timer"
	"github.com/colonyops/chirp/pkg/timer/timertest"
)

func TestSchedule_fires_once_after_delay(t *testing.T) {
	clock := timertest.New()
	var calls int

	h := timer.Schedule(clock, 100*time.Millisecond, func() { calls++ })

	clock.Advance(99 * time.Millisecond)
	assert.Equal(t, 0, calls)
	assert.True(t, h.Pending())

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.False(t, h.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, calls)
}

func TestSchedule_zero_delay_is_deferred(t *testing.T) {
	clock := timertest.New()
	var calls int

	timer.Schedule(clock, 0, func() { calls++ })
	assert.Equal(t, 0, calls, "callback must not run synchronously")

	clock.Advance(0)
	assert.Equal(t, 1, calls)
}

func TestSchedule_negative_delay_clamps_to_zero(t *testing.T) {
	clock := timertest.New()
	var calls int

	timer.Schedule(clock, -time.Second, func() { calls++ })
	clock.Advance(0)

	assert.Equal(t, 1, calls)
}

func TestHandle_Cancel_prevents_callback(t *testing.T) {
	clock := timertest.New()
	var calls int

	h := timer.Schedule(clock, 10*time.Millisecond, func() { calls++ })
	assert.True(t, h.Cancel())

	clock.Advance(time.Second)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, clock.Pending())
}

func TestHandle_Cancel_is_idempotent(t *testing.T) {
	clock := timer.System
	h := timer.Schedule(clock, time.Hour, func() {})

	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())

	var nilHandle *timer.Handle
	assert.False(t, nilHandle.Cancel())
	assert.False(t, nilHandle.Pending())
}

func TestHandle_Cancel_after_fire_is_noop(t *testing.T) {
	clock := timertest.New()
	h := timer.Schedule(clock, time.Millisecond, func() {})

	clock.Advance(time.Millisecond)
	assert.False(t, h.Cancel())
}

func TestSchedule_system_clock_fires(t *testing.T) {
	var fired atomic.Bool
	timer.Schedule(timer.System, time.Millisecond, func() { fired.Store(true) })

	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
}

func TestClock_Advance_fires_in_deadline_order(t *testing.T) {
	clock := timertest.New()
	var order []int

	timer.Schedule(clock, 30*time.Millisecond, func() { order = append(order, 3) })
	timer.Schedule(clock, 10*time.Millisecond, func() { order = append(order, 1) })
	timer.Schedule(clock, 20*time.Millisecond, func() {
		order = append(order, 2)
		timer.Schedule(clock, 5*time.Millisecond, func() { order = append(order, 25) })
	})

	clock.Advance(time.Second)

	assert.Equal(t, []int{1, 2, 25, 3}, order)
}
