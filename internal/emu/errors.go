package emu

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError indicates the engine executable does not exist or is not
// runnable.
type NotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine executable %s not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TimeoutError indicates the run exceeded its deadline and the engine was
// forcibly terminated.
type TimeoutError struct {
	After time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("engine run timed out after %s", e.After)
}

// ExitError indicates the engine exited non-zero without being terminated by
// this package.
type ExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("engine exited with code %d", e.Code)
}

// IsTimeout reports whether err is a TimeoutError. Uses errors.As to handle
// wrapped errors.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
