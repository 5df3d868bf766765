package search

import (
	"errors"
	"fmt"
)

// SchedulerErrorCode categorizes scheduling failures.
type SchedulerErrorCode string

const (
	// ErrCodeBadModulus indicates n is not an integer >= 2.
	ErrCodeBadModulus SchedulerErrorCode = "BAD_MODULUS"

	// ErrCodeBadWorkers indicates a worker count below 1.
	ErrCodeBadWorkers SchedulerErrorCode = "BAD_WORKERS"

	// ErrCodeSpaceTooLarge indicates the per-worker chunk count does not
	// fit the block representation. Raising the worker count or the chunk
	// depth shrinks the per-worker share.
	ErrCodeSpaceTooLarge SchedulerErrorCode = "SPACE_TOO_LARGE"
)

// SchedulerError is a structured scheduling error.
type SchedulerError struct {
	Code    SchedulerErrorCode
	Message string
}

// Error implements the error interface.
func (e *SchedulerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newSchedulerError(code SchedulerErrorCode, format string, args ...any) *SchedulerError {
	return &SchedulerError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsSpaceTooLarge reports whether err is a SPACE_TOO_LARGE scheduler error.
// Uses errors.As to handle wrapped errors.
func IsSpaceTooLarge(err error) bool {
	var se *SchedulerError
	return errors.As(err, &se) && se.Code == ErrCodeSpaceTooLarge
}
