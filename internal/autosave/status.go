package autosave

import (
	"errors"
	"time"
)

// ErrSaveTimeout marks a write that did not settle within the save timeout.
var ErrSaveTimeout = errors.New("autosave: save timed out")

// ErrClosed is returned by Flush on a closed pipeline.
var ErrClosed = errors.New("autosave: pipeline closed")

// State is the autosave state of one document.
type State int

const (
	// Idle: the document matches the last persisted state.
	Idle State = iota
	// Dirty: at least one mutation is not persisted yet.
	Dirty
	// Saving: a write is in flight.
	Saving
	// Error: the last write failed; edits are kept and retried.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is what the UI shows next to the document.
type Status struct {
	State State `json:"state"`
	// Dirty is true while some mutation is neither persisted nor in flight.
	Dirty         bool      `json:"dirty"`
	LastSavedAt   time.Time `json:"lastSavedAt"`
	LastError     string    `json:"lastError,omitempty"`
	SavedRevision uint64    `json:"savedRevision"`
	Failures      int       `json:"failures"`
}
