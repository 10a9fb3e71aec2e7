package deferred

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chirp/pkg/timer/timertest"
)

func echo(calls *[]int) func(int) (int, error) {
	return func(i int) (int, error) {
		*calls = append(*calls, i)
		return i * 10, nil
	}
}

func TestNewThrottler_rejects_invalid_arguments(t *testing.T) {
	_, err := NewThrottler(func(int) (int, error) { return 0, nil }, -time.Second)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewThrottler[int, int](nil, time.Second)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestThrottler_leading_edge_only(t *testing.T) {
	clock := timertest.New()
	var calls []int

	th, err := NewThrottler(echo(&calls), 200*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	r, err := th.Trigger(1)
	require.NoError(t, err)
	assert.Equal(t, 10, r)
	assert.Equal(t, []int{1}, calls, "first trigger executes synchronously")

	clock.Advance(50 * time.Millisecond)
	r, err = th.Trigger(2)
	require.NoError(t, err)
	assert.Equal(t, 10, r, "suppressed trigger returns last result")

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{1}, calls, "suppressed call is not replayed")

	r, err = th.Trigger(3)
	require.NoError(t, err)
	assert.Equal(t, 30, r)
	assert.Equal(t, []int{1, 3}, calls)
}

func TestThrottler_Ready(t *testing.T) {
	clock := timertest.New()
	var calls []int

	th, err := NewThrottler(echo(&calls), 100*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	assert.True(t, th.Ready())
	_, _ = th.Trigger(1)
	assert.False(t, th.Ready())

	clock.Advance(100 * time.Millisecond)
	assert.True(t, th.Ready())
}

func TestThrottler_zero_limit_still_defers_release(t *testing.T) {
	clock := timertest.New()
	var calls []int

	th, err := NewThrottler(echo(&calls), 0, WithClock(clock))
	require.NoError(t, err)

	_, _ = th.Trigger(1)
	_, _ = th.Trigger(2)
	clock.Advance(0)
	_, _ = th.Trigger(3)

	assert.Equal(t, []int{1, 3}, calls)
}

func TestThrottler_action_failure_propagates_and_keeps_cooldown(t *testing.T) {
	clock := timertest.New()
	boom := errors.New("boom")
	var calls int

	th, err := NewThrottler(func(i int) (string, error) {
		calls++
		switch i {
		case 1:
			return "", boom
		case 2:
			panic("kaboom")
		}
		return "ok", nil
	}, 100*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	_, err = th.Trigger(1)
	require.ErrorIs(t, err, boom)
	assert.False(t, th.Ready())
	assert.Equal(t, 1, clock.Pending())

	_, err = th.Trigger(9)
	require.NoError(t, err, "suppressed call does not repeat the failure")

	clock.Advance(100 * time.Millisecond)
	_, err = th.Trigger(2)
	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "kaboom", actionErr.Panic)

	clock.Advance(100 * time.Millisecond)
	r, err := th.Trigger(3)
	require.NoError(t, err)
	assert.Equal(t, "ok", r)
	assert.Equal(t, 3, calls)
}

func TestThrottler_failure_keeps_last_successful_result(t *testing.T) {
	clock := timertest.New()
	boom := errors.New("boom")

	th, err := NewThrottler(func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i * 10, nil
	}, 100*time.Millisecond, WithClock(clock))
	require.NoError(t, err)

	r, err := th.Trigger(1)
	require.NoError(t, err)
	assert.Equal(t, 10, r)

	clock.Advance(100 * time.Millisecond)
	_, err = th.Trigger(2)
	require.ErrorIs(t, err, boom)

	r, err = th.Trigger(3)
	require.NoError(t, err)
	assert.Equal(t, 10, r, "suppressed call returns the last successful result")
}

func TestThrottler_Stop_cancels_cooldown(t *testing.T) {
	clock := timertest.New()
	var calls []int

	th, err := NewThrottler(echo(&calls), time.Hour, WithClock(clock))
	require.NoError(t, err)

	_, _ = th.Trigger(1)
	th.Stop()

	assert.Equal(t, 0, clock.Pending())
	assert.True(t, th.Ready())
}
