package training

import (
	"errors"
	"fmt"
)

// Sentinel errors for schedule configuration problems.
// Use errors.Is to check: errors.Is(err, training.ErrInvalidConfig)
var (
	ErrInvalidConfig    = errors.New("training: invalid schedule configuration")
	ErrDegenerateDecay  = errors.New("training: cosine decay window is empty")
	ErrUnknownScheduler = errors.New("training: unknown scheduler")
)

// ConfigurationError reports a misconfigured schedule. These are setup
// mistakes: callers should fix the configuration rather than retry.
type ConfigurationError struct {
	Field   string // Offending configuration field
	Details string
	Err     error // ErrInvalidConfig or ErrDegenerateDecay
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Details)
}

// Unwrap returns the sentinel this error belongs to.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(field, details string) error {
	return &ConfigurationError{Field: field, Details: details, Err: ErrInvalidConfig}
}
