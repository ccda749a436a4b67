package airzone

import (
	"errors"
	"fmt"
)

// Validation failures. Use errors.Is to tell them apart.
var (
	ErrUnknownMode        = errors.New("unknown mode")
	ErrNotControllingUnit = errors.New("not a controlling unit: no modes available")
	ErrModeUnavailable    = errors.New("mode not available")
	ErrInvalidTemperature = errors.New("invalid temperature")
)

// ValidationError is returned when a command is rejected before reaching the server.
// Mode holds the rejected mode name, Value the rejected setpoint.
type ValidationError struct {
	Target string
	Mode   string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	subject := e.Mode
	if subject == "" {
		subject = e.Value
	}
	if e.Target == "" {
		return fmt.Sprintf("%v: %q", e.Err, subject)
	}
	return fmt.Sprintf("%s: %v: %q", e.Target, e.Err, subject)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
