package cadence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when time, value or duration arguments
	// are not usable: non-finite numbers, non-positive time constants and
	// ramp durations, unparsable time expressions.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRange is returned when a value is outside of the declared bounds
	// of a parameter.
	ErrRange = errors.New("value out of range")
)

// ArgumentError describes a rejected argument of an operation.
type ArgumentError struct {
	Op    string
	Name  string
	Value interface{}
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s %v: %v", e.Op, e.Name, e.Value, e.Err)
}

// Unwrap returns the sentinel error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// InvalidArgument returns an ArgumentError wrapping ErrInvalidArgument.
func InvalidArgument(op, name string, value interface{}) error {
	return &ArgumentError{Op: op, Name: name, Value: value, Err: ErrInvalidArgument}
}

// OutOfRange returns an ArgumentError wrapping ErrRange.
func OutOfRange(op, name string, value interface{}) error {
	return &ArgumentError{Op: op, Name: name, Value: value, Err: ErrRange}
}

// CallbackErrors wraps errors that occurred when multiple callbacks
// failed during the same tick.
type CallbackErrors []error

func (e CallbackErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e CallbackErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Ret returns untyped nil if error list is empty.
func (e CallbackErrors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
