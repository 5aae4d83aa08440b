package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUnitName is kept for completeness; NormalizeUnitName accepts
	// every input so nothing returns it today.
	ErrInvalidUnitName = errors.New("invalid unit name")

	// ErrNotFound means the manager could not resolve a unit name.
	ErrNotFound = errors.New("unit not found")

	// ErrTransport covers any failed call to the manager: connection loss,
	// timeouts and malformed replies.
	ErrTransport = errors.New("transport error")

	// ErrUnrecognizedState means the manager sent an ActiveState value
	// outside the known set, which points at an incompatible manager.
	ErrUnrecognizedState = errors.New("unrecognized active state")
)

// UnitError records the unit and pipeline step an error came from.
type UnitError struct {
	Unit string
	Op   string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, e.Op, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Transport wraps err so that it matches ErrTransport while keeping the
// underlying cause in the message and the unwrap chain.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
