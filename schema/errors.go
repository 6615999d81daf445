package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or mistyped argument.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState marks an operation that is illegal in the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrDriver marks a failure reported by the database driver.
	ErrDriver = errors.New("driver failure")
)

// ValidationError is returned when a required argument is absent or a value
// does not fit the declared column type.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StateError is returned before any driver call when an operation cannot run.
type StateError struct {
	Op      string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// DriverError wraps a failure from the driver collaborator.
// errors.Is(err, ErrDriver) holds and errors.As reaches the driver's own error.
type DriverError struct {
	Op  string
	SQL string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

func (e *DriverError) Is(target error) bool {
	return target == ErrDriver
}

func driverError(op, sql string, err error) error {
	return &DriverError{Op: op, SQL: sql, Err: err}
}
