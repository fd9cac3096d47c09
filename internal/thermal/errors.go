package thermal

import (
	"errors"
	"fmt"
)

// Domain errors for configuration and runs.
var (
	// ErrInvalidConfig indicates a dimension, spacing, diffusivity or hot-body
	// geometry that cannot produce a valid grid.
	ErrInvalidConfig = errors.New("thermal: invalid configuration")

	// ErrStabilityViolation indicates a time step for which alpha*dt/dx² exceeds
	// the explicit 2D limit of 0.25.
	ErrStabilityViolation = errors.New("thermal: stability violation (alpha*dt/dx^2 > 0.25)")
)

// ConfigError names the field and the constraint a configuration broke.
// It unwraps to ErrInvalidConfig or ErrStabilityViolation.
type ConfigError struct {
	Field      string
	Value      float64
	Constraint string
	Kind       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s = %g, want %s", e.Kind, e.Field, e.Value, e.Constraint)
}

func (e *ConfigError) Unwrap() error {
	return e.Kind
}

func invalid(field string, value float64, constraint string) error {
	return &ConfigError{Field: field, Value: value, Constraint: constraint, Kind: ErrInvalidConfig}
}

// RunError wraps an interruption with the last fully completed step.
type RunError struct {
	Step    int
	Elapsed float64
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("thermal: run stopped after step %d (t=%.4gs): %v", e.Step, e.Elapsed, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
