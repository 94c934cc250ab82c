package model

import (
	"errors"
	"fmt"
)

// ErrValidation marks a structural operation rejected because it would break
// a document invariant. The document is left unchanged.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the rejected operation and the reason.
type ValidationError struct {
	Op     string
	Reason string
}

func NewValidationError(op, reason string) *ValidationError {
	return &ValidationError{Op: op, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Anomaly records a recovered oddity found while migrating a persisted record.
type Anomaly struct {
	Path   string
	Reason string
}

func (a Anomaly) String() string { return a.Path + ": " + a.Reason }
