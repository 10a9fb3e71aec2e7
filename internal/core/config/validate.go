package config

import (
	"fmt"

	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is valid. Field problems are
// reported together as criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		c.validateToasts(),
		c.validateRender(),
	)
}

func (c *Config) validateToasts() error {
	var errs criterio.FieldErrorsBuilder

	if c.Toasts.DefaultDuration < 0 {
		errs = errs.Append("toasts.default_duration", fmt.Errorf("must not be negative, got %s", c.Toasts.DefaultDuration))
	}
	if c.Toasts.ExitDelay < 0 {
		errs = errs.Append("toasts.exit_delay", fmt.Errorf("must not be negative, got %s", c.Toasts.ExitDelay))
	}
	if c.Toasts.MaxVisible < 0 {
		errs = errs.Append("toasts.max_visible", fmt.Errorf("must not be negative, got %d", c.Toasts.MaxVisible))
	}

	return errs.ToError()
}

func (c *Config) validateRender() error {
	var errs criterio.FieldErrorsBuilder

	if c.Render.Width < 10 {
		errs = errs.Append("render.width", fmt.Errorf("must be at least 10, got %d", c.Render.Width))
	}
	if c.Render.RedrawDebounce < 0 {
		errs = errs.Append("render.redraw_debounce", fmt.Errorf("must not be negative, got %s", c.Render.RedrawDebounce))
	}

	return errs.ToError()
}
