package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies script and step from the event context into log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if name := GetScript(ctx); name != "" {
		e.Str("script", name)
	}

	if step := GetStep(ctx); step >= 0 {
		e.Int("step", step)
	}
}
