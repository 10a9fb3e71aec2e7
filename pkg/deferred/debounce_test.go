package deferred

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chirp/pkg/timer/timertest"
)

func TestNewDebouncer_rejects_invalid_arguments(t *testing.T) {
	_, err := NewDebouncer[string](func(string) error { return nil }, -time.Millisecond)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewDebouncer[string](nil, time.Millisecond)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDebouncer_collapses_burst_to_last_argument(t *testing.T) {
	clock := timertest.New()
	var calls []string
	var firedAt time.Time

	d, err := NewDebouncer(func(s string) error {
		calls = append(calls, s)
		firedAt = clock.Now()
		return nil
	}, 100*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	d.Trigger("a")
	clock.Advance(3 * time.Millisecond)
	d.Trigger("b")
	clock.Advance(3 * time.Millisecond)
	d.Trigger("c")
	lastTrigger := clock.Now()

	clock.Advance(99 * time.Millisecond)
	assert.Empty(t, calls)

	clock.Advance(time.Second)
	require.Equal(t, []string{"c"}, calls)
	assert.GreaterOrEqual(t, firedAt.Sub(lastTrigger), 100*time.Millisecond)
	assert.Equal(t, 0, clock.Pending())
}

func TestDebouncer_no_execution_without_trigger(t *testing.T) {
	clock := timertest.New()
	var calls int

	_, err := NewDebouncer(func(int) error { calls++; return nil }, 10*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	clock.Advance(time.Second)
	assert.Equal(t, 0, calls)
}

func TestDebouncer_separate_quiet_periods_execute_separately(t *testing.T) {
	clock := timertest.New()
	var calls []int

	d, err := NewDebouncer(func(i int) error { calls = append(calls, i); return nil }, 50*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	d.Trigger(1)
	clock.Advance(50 * time.Millisecond)
	d.Trigger(2)
	clock.Advance(50 * time.Millisecond)

	assert.Equal(t, []int{1, 2}, calls)
}

func TestDebouncer_holds_single_timer(t *testing.T) {
	clock := timertest.New()

	d, err := NewDebouncer(func(int) error { return nil }, 50*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	for i := range 10 {
		d.Trigger(i)
	}

	assert.Equal(t, 1, clock.Pending())
	assert.True(t, d.Pending())
}

func TestDebouncer_Cancel_drops_pending(t *testing.T) {
	clock := timertest.New()
	var calls int

	d, err := NewDebouncer(func(int) error { calls++; return nil }, 50*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	d.Trigger(1)
	d.Cancel()
	d.Cancel()
	clock.Advance(time.Second)

	assert.Equal(t, 0, calls)
	assert.False(t, d.Pending())
}

func TestDebouncer_action_failure_goes_to_handler(t *testing.T) {
	clock := timertest.New()
	boom := errors.New("boom")
	var reported []error
	var calls int

	d, err := NewDebouncer(func(i int) error {
		calls++
		if i == 1 {
			return boom
		}
		if i == 2 {
			panic("kaboom")
		}
		return nil
	}, 10*time.Millisecond, WithClock(clock), WithErrorHandler(func(err error) {
		reported = append(reported, err)
	}))
	require.NoError(t, err)

	d.Trigger(1)
	clock.Advance(10 * time.Millisecond)
	d.Trigger(2)
	clock.Advance(10 * time.Millisecond)
	d.Trigger(3)
	clock.Advance(10 * time.Millisecond)

	assert.Equal(t, 3, calls, "failures must not block later executions")
	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)

	var actionErr *ActionError
	require.ErrorAs(t, reported[1], &actionErr)
	assert.Equal(t, "kaboom", actionErr.Panic)
	assert.False(t, d.Pending())
}

func TestDebouncer_action_failure_logged_at_warn(t *testing.T) {
	clock := timertest.New()
	var buf bytes.Buffer

	d, err := NewDebouncer(func(int) error {
		return errors.New("boom")
	}, 10*time.Millisecond, WithClock(clock), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)

	d.Trigger(1)
	clock.Advance(10 * time.Millisecond)

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "debounced action failed")
}
