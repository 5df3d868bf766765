package compose

import (
	"errors"
	"fmt"
)

// BuildErrorCode categorizes program synthesis failures.
type BuildErrorCode string

const (
	// ErrCodeSizeExceeded indicates the block's chunk count exceeds the
	// engine's addressable ceiling.
	ErrCodeSizeExceeded BuildErrorCode = "SIZE_EXCEEDED"

	// ErrCodeBadDepth indicates a chunk depth outside the engine's range.
	ErrCodeBadDepth BuildErrorCode = "BAD_DEPTH"

	// ErrCodeBadLayout indicates overlapping or unaddressable register
	// ranges in the RegisterLayout.
	ErrCodeBadLayout BuildErrorCode = "BAD_LAYOUT"

	// ErrCodeOffsetOverflow indicates a chunk offset wider than the
	// layout's reserved offset limbs.
	ErrCodeOffsetOverflow BuildErrorCode = "OFFSET_OVERFLOW"

	// ErrCodeBadModulus indicates a modulus the search cannot target.
	ErrCodeBadModulus BuildErrorCode = "BAD_MODULUS"

	// ErrCodeBadBlock indicates an empty or negative search block.
	ErrCodeBadBlock BuildErrorCode = "BAD_BLOCK"

	// ErrCodeBadBudget indicates a negative iteration budget.
	ErrCodeBadBudget BuildErrorCode = "BAD_BUDGET"
)

// BuildError is a structured program synthesis error.
type BuildError struct {
	Code    BuildErrorCode
	Message string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newBuildError(code BuildErrorCode, format string, args ...any) *BuildError {
	return &BuildError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsSizeExceeded reports whether err is a SIZE_EXCEEDED build error.
// Uses errors.As to handle wrapped errors.
func IsSizeExceeded(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeSizeExceeded
}
