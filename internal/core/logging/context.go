package logging

import "context"

type contextKey string

const (
	scriptKey contextKey = "script"
	stepKey   contextKey = "step"
)

// WithScript adds the name of the running script to the context.
func WithScript(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, scriptKey, name)
}

// WithStep adds the index of the running script step to the context.
func WithStep(ctx context.Context, step int) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// GetScript retrieves the script name from the context.
// Returns empty string if not present.
func GetScript(ctx context.Context) string {
	if name, ok := ctx.Value(scriptKey).(string); ok {
		return name
	}
	return ""
}

// GetStep retrieves the step index from the context.
// Returns -1 if not present.
func GetStep(ctx context.Context) int {
	if step, ok := ctx.Value(stepKey).(int); ok {
		return step
	}
	return -1
}
