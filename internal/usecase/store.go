package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/domain"
)

// Store persists resume documents. Every call is scoped to an owner: a
// record owned by someone else behaves as if it did not exist and yields
// domain.ErrNotFound.
type Store interface {
	Load(ctx context.Context, owner, id uuid.UUID) (domain.Record, error)
	// Save creates or replaces the content of id and returns the commit
	// time.
	Save(ctx context.Context, owner, id uuid.UUID, content json.RawMessage) (time.Time, error)
	List(ctx context.Context, owner uuid.UUID) ([]domain.Summary, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}
