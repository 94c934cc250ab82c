// Package memory keeps resume documents in process memory. It backs tests
// and the zero-setup development mode.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/domain"
	"resume-builder/internal/usecase"
)

var _ usecase.Store = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Record
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		records: make(map[uuid.UUID]domain.Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Load(_ context.Context, owner, id uuid.UUID) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok || rec.OwnerID != owner {
		return domain.Record{}, domain.ErrNotFound
	}
	rec.Content = bytes.Clone(rec.Content)
	return rec, nil
}

// Save upserts id. A record owned by someone else is left alone and
// reported as not found.
func (s *Store) Save(_ context.Context, owner, id uuid.UUID, content json.RawMessage) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rec, ok := s.records[id]
	if ok && rec.OwnerID != owner {
		return time.Time{}, domain.ErrNotFound
	}
	if !ok {
		rec = domain.Record{ID: id, OwnerID: owner, CreatedAt: now}
	}
	rec.Content = bytes.Clone(content)
	rec.UpdatedAt = now
	s.records[id] = rec
	return now, nil
}

// List returns the owner's documents, most recently updated first.
func (s *Store) List(_ context.Context, owner uuid.UUID) ([]domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Summary, 0)
	for _, rec := range s.records {
		if rec.OwnerID == owner {
			out = append(out, rec.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) Delete(_ context.Context, owner, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.OwnerID != owner {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	return nil
}
