package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/autosave"
	"resume-builder/internal/domain"
	"resume-builder/internal/editor"
	"resume-builder/internal/model"
	"resume-builder/internal/render"
)

// ErrSaveFailed wraps a write error surfaced by an explicit save or close.
var ErrSaveFailed = errors.New("save failed")

type ServiceOption func(*DocumentService)

func WithIDGenerator(fn editor.IDGenerator) ServiceOption {
	return func(s *DocumentService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithPreviewScale(scale float64) ServiceOption {
	return func(s *DocumentService) { s.previewScale = scale }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *DocumentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// openDoc is a document with a live editing session.
type openDoc struct {
	owner    uuid.UUID
	session  *editor.Session
	pipeline *autosave.Pipeline
}

// DocumentService is the entry point for editing: it loads records into
// sessions, autosaves them and renders them. One session exists per
// document; opening it again returns the same one.
type DocumentService struct {
	store        Store
	renderer     *render.Renderer
	exporter     *Exporter
	autosave     *autosave.Manager
	newID        editor.IDGenerator
	previewScale float64
	logger       *slog.Logger

	mu   sync.Mutex
	docs map[uuid.UUID]*openDoc
	// closing holds documents that are being closed or deleted; acquire
	// waits on the channel before loading them again.
	closing map[uuid.UUID]chan struct{}
}

func NewDocumentService(store Store, r *render.Renderer, exporter *Exporter, manager *autosave.Manager, opts ...ServiceOption) *DocumentService {
	s := &DocumentService{
		store:    store,
		renderer: r,
		exporter: exporter,
		autosave: manager,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		docs:     make(map[uuid.UUID]*openDoc),
		closing:  make(map[uuid.UUID]chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create persists a starter document and opens it.
func (s *DocumentService) Create(ctx context.Context, owner uuid.UUID) (uuid.UUID, model.Document, error) {
	id := uuid.New()
	doc := model.NewDocument(s.newID)
	content, err := doc.Marshal()
	if err != nil {
		return uuid.Nil, model.Document{}, err
	}
	if _, err := s.store.Save(ctx, owner, id, content); err != nil {
		return uuid.Nil, model.Document{}, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("document created", "document", id, "owner", owner)
	od, _, err := s.attach(owner, id, doc)
	if err != nil {
		return uuid.Nil, model.Document{}, err
	}
	snap, _ := od.session.Snapshot()
	return id, snap, nil
}

// Open returns the live snapshot of id, loading and migrating the record
// when no session exists yet.
func (s *DocumentService) Open(ctx context.Context, owner, id uuid.UUID) (model.Document, uint64, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return model.Document{}, 0, err
	}
	doc, rev := od.session.Snapshot()
	return doc, rev, nil
}

// lookup returns the open document, or the channel to wait on while id is
// being closed or deleted. Both are nil when id is not open.
func (s *DocumentService) lookup(owner, id uuid.UUID) (*openDoc, <-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(owner, id)
}

func (s *DocumentService) lookupLocked(owner, id uuid.UUID) (*openDoc, <-chan struct{}, error) {
	if ch, ok := s.closing[id]; ok {
		return nil, ch, nil
	}
	od, ok := s.docs[id]
	if !ok {
		return nil, nil, nil
	}
	if od.owner != owner {
		return nil, nil, domain.ErrNotFound
	}
	return od, nil, nil
}

func wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DocumentService) acquire(ctx context.Context, owner, id uuid.UUID) (*openDoc, error) {
	for {
		od, ch, err := s.lookup(owner, id)
		if err != nil || od != nil {
			return od, err
		}
		if ch != nil {
			if err := wait(ctx, ch); err != nil {
				return nil, err
			}
			continue
		}

		rec, err := s.store.Load(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		doc, anomalies := model.Migrate(rec.Content)
		for _, a := range anomalies {
			s.logger.Debug("migration anomaly", "document", id, "path", a.Path, "reason", a.Reason)
		}
		od, ch, err = s.attach(owner, id, doc)
		if err != nil || od != nil {
			return od, err
		}
		// the record was closed or deleted meanwhile; load it again
		if err := wait(ctx, ch); err != nil {
			return nil, err
		}
	}
}

// attach registers a session for doc. A concurrent attach of the same id
// wins over this one. While id is being closed or deleted nothing is
// attached and the channel to wait on is returned instead.
func (s *DocumentService) attach(owner, id uuid.UUID, doc model.Document) (*openDoc, <-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if od, ch, err := s.lookupLocked(owner, id); err != nil || od != nil || ch != nil {
		return od, ch, err
	}
	session := editor.NewSession(id.String(), doc,
		editor.WithIDGenerator(s.newID),
		editor.WithLogger(s.logger))
	saver := autosave.SaverFunc(func(ctx context.Context, doc model.Document) (time.Time, error) {
		content, err := doc.Marshal()
		if err != nil {
			return time.Time{}, err
		}
		return s.store.Save(ctx, owner, id, content)
	})
	p := s.autosave.Open(id.String(), session, saver)
	session.OnChange(func(uint64) { p.MarkDirty() })

	od := &openDoc{owner: owner, session: session, pipeline: p}
	s.docs[id] = od
	return od, nil, nil
}

// Apply runs op against the live snapshot. A rejected operation leaves the
// document untouched and is returned as a validation error.
func (s *DocumentService) Apply(ctx context.Context, owner, id uuid.UUID, op editor.Operation) (model.Document, uint64, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return model.Document{}, 0, err
	}
	return od.session.Apply(op)
}

// Replace imports a complete canonical document over id.
func (s *DocumentService) Replace(ctx context.Context, owner, id uuid.UUID, raw []byte) (model.Document, uint64, error) {
	doc, err := editor.DecodeDocument(raw)
	if err != nil {
		return model.Document{}, 0, err
	}
	return s.Apply(ctx, owner, id, editor.ReplaceDocumentOp{Document: doc})
}

// SaveNow writes the document immediately and waits for the outcome.
func (s *DocumentService) SaveNow(ctx context.Context, owner, id uuid.UUID) (autosave.Status, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return autosave.Status{}, err
	}
	od.pipeline.SaveNow()
	if err := od.pipeline.Flush(ctx); err != nil {
		return od.pipeline.Status(), fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return od.pipeline.Status(), nil
}

func (s *DocumentService) Status(ctx context.Context, owner, id uuid.UUID) (autosave.Status, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return autosave.Status{}, err
	}
	return od.pipeline.Status(), nil
}

// AvailableSections lists the section types that can still be added.
func (s *DocumentService) AvailableSections(ctx context.Context, owner, id uuid.UUID) ([]model.Descriptor, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	doc, _ := od.session.Snapshot()
	types := model.ListAvailable(doc.Types())
	out := make([]model.Descriptor, 0, len(types))
	for _, t := range types {
		out = append(out, model.Describe(t))
	}
	return out, nil
}

func (s *DocumentService) Preview(ctx context.Context, owner, id uuid.UUID) (render.PreviewResult, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return render.PreviewResult{}, err
	}
	doc, _ := od.session.Snapshot()
	return s.renderer.Preview(doc, render.PreviewOptions{Scale: s.previewScale})
}

// Export renders the snapshot taken at call time. Edits made while the
// backend runs do not affect the result.
func (s *DocumentService) Export(ctx context.Context, owner, id uuid.UUID) (Artifact, error) {
	od, err := s.acquire(ctx, owner, id)
	if err != nil {
		return Artifact{}, err
	}
	doc, _ := od.session.Snapshot()
	return s.exporter.Export(ctx, id.String(), doc)
}

func (s *DocumentService) List(ctx context.Context, owner uuid.UUID) ([]domain.Summary, error) {
	return s.store.List(ctx, owner)
}

// Delete drops the session without saving and removes the record. A write
// already in flight settles before the record goes.
func (s *DocumentService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	open, release, err := s.hold(ctx, owner, id)
	if err != nil {
		return err
	}
	defer release()
	if open {
		if err := s.autosave.Discard(ctx, id.String()); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, owner, id)
}

// hold detaches the session of id and marks it closing until release is
// called. acquire waits for release instead of loading a record
// that is about to change. It reports whether a session was open.
func (s *DocumentService) hold(ctx context.Context, owner, id uuid.UUID) (bool, func(), error) {
	for {
		s.mu.Lock()
		if ch, ok := s.closing[id]; ok {
			s.mu.Unlock()
			if err := wait(ctx, ch); err != nil {
				return false, nil, err
			}
			continue
		}
		od, open := s.docs[id]
		if open && od.owner != owner {
			s.mu.Unlock()
			return false, nil, domain.ErrNotFound
		}
		delete(s.docs, id)
		ch := make(chan struct{})
		s.closing[id] = ch
		s.mu.Unlock()

		release := func() {
			s.mu.Lock()
			delete(s.closing, id)
			s.mu.Unlock()
			close(ch)
		}
		return open, release, nil
	}
}

// Close flushes pending edits and ends the session. Closing a document
// that is not open is a no-op.
func (s *DocumentService) Close(ctx context.Context, owner, id uuid.UUID) error {
	open, release, err := s.hold(ctx, owner, id)
	if err != nil {
		return err
	}
	defer release()
	if !open {
		return nil
	}
	if err := s.autosave.Close(ctx, id.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

// Shutdown flushes and closes every session.
func (s *DocumentService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	n := len(s.docs)
	s.docs = make(map[uuid.UUID]*openDoc)
	s.mu.Unlock()
	s.logger.Info("flushing open documents", "count", n)
	return s.autosave.CloseAll(ctx)
}
