package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is a persisted resume document as the store sees it. Content is
// the canonical (or legacy) JSON; the store never interprets it.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is the listing view of a Record.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Record) Summary() Summary {
	return Summary{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}
