package script

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chirp/internal/core/logging"
	"github.com/colonyops/chirp/internal/toast"
	"github.com/colonyops/chirp/pkg/timer"
)

// Target is the dispatcher surface a script drives.
type Target interface {
	toast.Notifier
	DismissAll()
}

// Sleeper waits for d, returning early with ctx's error when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ClockSleeper sleeps on c.
func ClockSleeper(c timer.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}

		done := make(chan struct{})
		h := timer.Schedule(c, d, func() { close(done) })

		select {
		case <-ctx.Done():
			h.Cancel()
			return ctx.Err()
		case <-done:
			return nil
		}
	}
}

// Runner replays scripts against a Target.
type Runner struct {
	target Target
	sleep  Sleeper
	log    zerolog.Logger
}

// NewRunner creates a runner.
func NewRunner(target Target, sleep Sleeper, log zerolog.Logger) *Runner {
	return &Runner{target: target, sleep: sleep, log: log}
}

// Run performs the steps of s in time order and returns the IDs assigned to
// each ref.
func (r *Runner) Run(ctx context.Context, s *Script) (map[string]string, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	ctx = logging.WithScript(ctx, s.Name)
	refs := make(map[string]string)
	var elapsed time.Duration

	for _, step := range s.ordered() {
		if wait := step.At - elapsed; wait > 0 {
			if err := r.sleep(ctx, wait); err != nil {
				return refs, err
			}
			elapsed = step.At
		}

		stepCtx := logging.WithStep(ctx, step.index)
		if err := r.apply(step.Step, refs); err != nil {
			return refs, fmt.Errorf("step %d (%s): %w", step.index, step.Op, err)
		}

		r.log.Debug().Ctx(stepCtx).
			Str("op", string(step.Op)).
			Str("ref", step.Ref).
			Dur("at", step.At).
			Msg("step applied")
	}

	return refs, nil
}

func (r *Runner) apply(step Step, refs map[string]string) error {
	switch step.Op {
	case OpNotify:
		id, err := r.target.Notify(step.data())
		if err != nil {
			return err
		}
		if step.Ref != "" {
			refs[step.Ref] = id
		}
	case OpUpdate:
		return r.target.Update(refs[step.Ref], step.patch())
	case OpDismiss:
		r.target.Dismiss(refs[step.Ref])
	case OpDismissAll:
		r.target.DismissAll()
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}
