package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/domain"
	"resume-builder/internal/render"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.Record
	saves   int
	failing bool
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uuid.UUID]domain.Record{}}
}

func (f *fakeStore) put(owner, id uuid.UUID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id] = domain.Record{ID: id, OwnerID: owner, Content: json.RawMessage(content)}
}

func (f *fakeStore) content(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.records[id].Content)
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// blockSaves holds every Save until release is called. entered receives
// once per Save that reached the gate.
func (f *fakeStore) blockSaves() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	f.entered = make(chan struct{}, 16)
	return f.entered, func() {
		f.mu.Lock()
		f.gate = nil
		f.mu.Unlock()
		close(gate)
	}
}

func (f *fakeStore) Load(_ context.Context, owner, id uuid.UUID) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.OwnerID != owner {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Save(_ context.Context, owner, id uuid.UUID, content json.RawMessage) (time.Time, error) {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return time.Time{}, context.DeadlineExceeded
	}
	if rec, ok := f.records[id]; ok && rec.OwnerID != owner {
		return time.Time{}, domain.ErrNotFound
	}
	f.saves++
	now := time.Now()
	f.records[id] = domain.Record{ID: id, OwnerID: owner, Content: append(json.RawMessage(nil), content...), UpdatedAt: now}
	return now, nil
}

func (f *fakeStore) List(_ context.Context, owner uuid.UUID) ([]domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Summary
	for _, r := range f.records {
		if r.OwnerID == owner {
			out = append(out, r.Summary())
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, owner, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.OwnerID != owner {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

// fakeBackend answers with the queued results, then repeats the last one.
type fakeBackend struct {
	mu      sync.Mutex
	results []backendResult
	calls   int
	html    []string
}

type backendResult struct {
	pdf []byte
	err error
}

func (b *fakeBackend) RenderHTMLToPDF(_ context.Context, html string, _ render.PageGeometry) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.html = append(b.html, html)
	r := b.results[min(b.calls, len(b.results))-1]
	return r.pdf, r.err
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}
