package fluid

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every ConfigError.
	ErrConfiguration = errors.New("fluid: invalid configuration")
	// ErrPrecondition is returned when Step or InjectImpulse receive
	// arguments they cannot work with.
	ErrPrecondition = errors.New("fluid: precondition violated")
)

// ConfigError describes one rejected configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fluid: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
