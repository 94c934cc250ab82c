package domain

import "errors"

// ErrNotFound is returned when a record does not exist or belongs to
// another owner. Callers cannot tell the two apart.
var ErrNotFound = errors.New("document not found")
