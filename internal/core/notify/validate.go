package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// Validate checks the create payload. Failures wrap ErrInvalidArgument and
// carry criterio.FieldErrors describing each bad field.
func (d Data) Validate() error {
	err := criterio.ValidateStruct(
		criterio.Run("title", d.Title, requiredText),
		criterio.Run("variant", string(d.Variant), func(s string) error { return optionalVariant(Variant(s)) }),
		validateDuration("duration", d.Duration),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if p.Title != nil {
		if err := requiredText(*p.Title); err != nil {
			errs = errs.Append("title", err)
		}
	}
	if p.Variant != nil {
		if err := optionalVariant(*p.Variant); err != nil {
			errs = errs.Append("variant", err)
		}
	}
	if err := durationValue(p.Duration); err != nil {
		errs = errs.Append("duration", err)
	}

	if err := errs.ToError(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

func requiredText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func optionalVariant(v Variant) error {
	if v == "" || v.Valid() {
		return nil
	}
	return fmt.Errorf("unknown variant %q", v)
}

func validateDuration(field string, d *time.Duration) error {
	if err := durationValue(d); err != nil {
		return criterio.NewFieldErrors(field, err)
	}
	return nil
}

func durationValue(d *time.Duration) error {
	if d == nil || *d >= 0 || *d == Forever {
		return nil
	}
	return fmt.Errorf("must not be negative, got %s", *d)
}
