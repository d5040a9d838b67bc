package config

import (
	"errors"
	"fmt"

	"github.com/user/alsamixer-volume/internal/logging"
)

// FieldError reports one schema violation.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v %s", e.Field, e.Value, e.Reason)
}

// Validate checks the alsamixer section against its schema.
func (m AlsaMixer) Validate() error {
	var errs []error
	if m.Card < 0 {
		errs = append(errs, &FieldError{Section + ".card", m.Card, "must be >= 0"})
	}
	if m.Control == "" {
		errs = append(errs, &FieldError{Section + ".control", `""`, "must not be empty"})
	}
	if m.VolMin < 0 || m.VolMin > 100 {
		errs = append(errs, &FieldError{Section + ".volmin", m.VolMin, "must be between 0 and 100"})
	}
	if m.VolMax < 0 || m.VolMax > 100 {
		errs = append(errs, &FieldError{Section + ".volmax", m.VolMax, "must be between 0 and 100"})
	}
	return errors.Join(errs...)
}

// Validate checks the whole configuration and reports every violation.
func (c *Config) Validate() error {
	errs := []error{c.AlsaMixer.Validate()}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, &FieldError{"port", c.Port, "must be between 0 and 65535"})
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, &FieldError{"log_level", c.LogLevel, "is not a known level"})
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
