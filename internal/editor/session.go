package editor

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"resume-builder/internal/model"
)

// ChangeFunc is called after every applied operation with the new revision.
type ChangeFunc func(rev uint64)

// Session owns the live document of one edit session. Operations are
// serialised; readers get deep copies.
type Session struct {
	mu        sync.Mutex
	id        string
	doc       model.Document
	rev       uint64
	newID     IDGenerator
	listeners []ChangeFunc
	logger    *slog.Logger
}

type Option func(*Session)

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(fn IDGenerator) Option {
	return func(s *Session) { s.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession starts a session on a copy of doc at revision 0.
func NewSession(id string, doc model.Document, opts ...Option) *Session {
	s := &Session{
		id:     id,
		doc:    doc.Clone(),
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Apply runs op against the current snapshot. On success the snapshot is
// replaced, the revision advances and listeners are notified outside the
// lock. On failure nothing changes.
func (s *Session) Apply(op Operation) (model.Document, uint64, error) {
	s.mu.Lock()
	next, err := op.Apply(s.doc, s.newID)
	if err != nil {
		rev := s.rev
		s.mu.Unlock()
		s.logger.Debug("operation rejected", "session", s.id, "op", op.Name(), "error", err)
		return model.Document{}, rev, err
	}
	s.doc = next
	s.rev++
	rev := s.rev
	out := next.Clone()
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Debug("operation applied", "session", s.id, "op", op.Name(), "rev", rev)
	for _, fn := range listeners {
		fn(rev)
	}
	return out, rev, nil
}

// Snapshot returns a copy of the current document and its revision.
func (s *Session) Snapshot() (model.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.rev
}

func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// OnChange registers fn for every future change.
func (s *Session) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
