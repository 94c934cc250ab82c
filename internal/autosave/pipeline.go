// Package autosave coalesces bursts of document mutations into few writes
// and keeps at most one write per document in flight.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"resume-builder/internal/model"
)

const (
	DefaultQuietPeriod = time.Second
	DefaultSaveTimeout = 10 * time.Second
	DefaultRetryBase   = 2 * time.Second
	DefaultRetryMax    = time.Minute
)

// Source hands out the current document and its revision. The snapshot is
// read when a write starts, not when the quiet period starts.
type Source interface {
	Snapshot() (model.Document, uint64)
}

// Saver persists one document snapshot and reports the commit time.
type Saver interface {
	Save(ctx context.Context, doc model.Document) (time.Time, error)
}

type SaverFunc func(ctx context.Context, doc model.Document) (time.Time, error)

func (f SaverFunc) Save(ctx context.Context, doc model.Document) (time.Time, error) {
	return f(ctx, doc)
}

type Option func(*Pipeline)

// WithQuietPeriod sets how long mutations must pause before a write.
func WithQuietPeriod(d time.Duration) Option {
	return func(p *Pipeline) { p.quiet = d }
}

// WithSaveTimeout bounds a single write. Zero disables the bound.
func WithSaveTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.saveTimeout = d }
}

// WithRetry sets the backoff after a failed write. A zero base turns
// automatic retries off.
func WithRetry(base, max time.Duration) Option {
	return func(p *Pipeline) {
		p.retryBase = base
		p.retryMax = max
	}
}

func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline is the autosave state machine of one open document.
type Pipeline struct {
	id          string
	src         Source
	saver       Saver
	clock       Clock
	logger      *slog.Logger
	quiet       time.Duration
	saveTimeout time.Duration
	retryBase   time.Duration
	retryMax    time.Duration

	mu    sync.Mutex
	state State
	// dirty: a mutation exists that is neither persisted nor part of the
	// in-flight snapshot.
	dirty bool
	// due: the quiet period ran out while a write was in flight.
	due         bool
	timer       Timer
	timerGen    uint64
	savedRev    uint64
	lastSavedAt time.Time
	lastErr     error
	failures    int
	closed      bool
	changed     chan struct{}
	observers   []func(Status)
	queue       []Status
	delivering  bool
}

// NewPipeline starts Idle; the source's current revision counts as persisted.
func NewPipeline(id string, src Source, saver Saver, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:          id,
		src:         src,
		saver:       saver,
		clock:       SystemClock,
		logger:      slog.Default(),
		quiet:       DefaultQuietPeriod,
		saveTimeout: DefaultSaveTimeout,
		retryBase:   DefaultRetryBase,
		retryMax:    DefaultRetryMax,
		changed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	_, p.savedRev = src.Snapshot()
	return p
}

func (p *Pipeline) ID() string { return p.id }

// MarkDirty records a mutation and restarts the quiet period. A write in
// flight is not interrupted; a follow-up write is scheduled instead.
func (p *Pipeline) MarkDirty() {
	p.mu.Lock()
	defer p.unlock()
	if p.closed {
		return
	}
	p.markDirtyLocked()
}

func (p *Pipeline) markDirtyLocked() {
	p.dirty = true
	if p.state == Saving {
		p.emit()
	} else {
		p.setState(Dirty)
	}
	p.arm(p.quiet)
}

// SaveNow writes immediately unless a write is already in flight, in which
// case the request counts as one more mutation.
func (p *Pipeline) SaveNow() {
	p.mu.Lock()
	defer p.unlock()
	if p.closed {
		return
	}
	if p.state == Saving {
		p.markDirtyLocked()
		return
	}
	p.startSave(true)
}

// Flush writes pending edits and waits until the pipeline settles. It
// returns the write error if the pipeline ends up in Error.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state != Saving && (p.dirty || p.state == Error) {
		p.startSave(false)
	}
	p.unlock()

	for {
		p.mu.Lock()
		switch {
		case p.state == Idle && !p.dirty:
			p.mu.Unlock()
			return nil
		case p.state == Error:
			err := p.lastErr
			p.mu.Unlock()
			return err
		case p.state == Dirty && p.closed:
			p.mu.Unlock()
			return ErrClosed
		case p.state == Dirty:
			p.startSave(false)
			p.unlock()
			continue
		}
		ch := p.changed
		p.unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops pending timers. A write in flight still completes.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.stopTimer()
	p.mu.Unlock()
}

// Stop closes the pipeline without saving pending edits and waits until a
// write in flight has settled.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.stopTimer()
	for p.state == Saving {
		ch := p.changed
		p.unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.mu.Lock()
	}
	p.unlock()
	return nil
}

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

// OnStatus registers fn for every status change. Calls are sequential and
// happen without internal locks held.
func (p *Pipeline) OnStatus(fn func(Status)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

func (p *Pipeline) statusLocked() Status {
	st := Status{
		State:         p.state,
		Dirty:         p.dirty,
		LastSavedAt:   p.lastSavedAt,
		SavedRevision: p.savedRev,
		Failures:      p.failures,
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

func (p *Pipeline) startSave(force bool) {
	doc, rev := p.src.Snapshot()
	p.stopTimer()
	p.due = false
	if !force && rev <= p.savedRev && p.lastErr == nil {
		p.dirty = false
		p.setState(Idle)
		return
	}
	p.dirty = false
	p.setState(Saving)
	p.logger.Debug("autosave started", "document", p.id, "revision", rev)
	go p.write(doc, rev)
}

func (p *Pipeline) write(doc model.Document, rev uint64) {
	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if p.saveTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.saveTimeout)
	}
	at, err := p.saver.Save(ctx, doc)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %v", ErrSaveTimeout, p.saveTimeout, err)
	}
	cancel()
	p.settle(rev, at, err)
}

func (p *Pipeline) settle(rev uint64, at time.Time, err error) {
	p.mu.Lock()
	defer p.unlock()

	if err != nil {
		p.failures++
		p.lastErr = err
		p.dirty = true
		p.logger.Error("autosave failed", "document", p.id, "revision", rev, "failures", p.failures, "error", err)
		p.setState(Error)
		if !p.closed && p.retryBase > 0 {
			p.arm(p.backoff())
		}
		return
	}

	if at.IsZero() {
		at = p.clock.Now()
	}
	p.failures = 0
	p.lastErr = nil
	p.savedRev = rev
	p.lastSavedAt = at
	p.logger.Debug("autosave committed", "document", p.id, "revision", rev, "committed_at", at)
	p.setState(Idle)

	if !p.dirty || p.closed {
		return
	}
	if p.due {
		p.startSave(false)
		return
	}
	p.setState(Dirty)
}

func (p *Pipeline) backoff() time.Duration {
	d := p.retryBase
	for i := 1; i < p.failures; i++ {
		d *= 2
		if p.retryMax > 0 && d >= p.retryMax {
			return p.retryMax
		}
	}
	if p.retryMax > 0 && d > p.retryMax {
		d = p.retryMax
	}
	return d
}

// arm (re)starts the single pipeline timer. Quiet period and retry share
// it: either way the expiry triggers a write of the latest snapshot.
func (p *Pipeline) arm(d time.Duration) {
	p.stopTimer()
	gen := p.timerGen
	p.timer = p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.unlock()
		if p.closed || gen != p.timerGen {
			return
		}
		p.timer = nil
		if p.state == Saving {
			p.due = true
			return
		}
		if p.dirty {
			p.startSave(false)
		}
	})
}

func (p *Pipeline) stopTimer() {
	p.timerGen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Pipeline) setState(s State) {
	p.state = s
	p.emit()
}

func (p *Pipeline) emit() {
	p.queue = append(p.queue, p.statusLocked())
	close(p.changed)
	p.changed = make(chan struct{})
}

// unlock releases p.mu and delivers queued statuses in order. Only one
// goroutine delivers at a time; others leave their events in the queue.
func (p *Pipeline) unlock() {
	if p.delivering || len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	p.delivering = true
	for {
		batch := p.queue
		p.queue = nil
		observers := p.observers
		if len(batch) == 0 {
			p.delivering = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		for _, st := range batch {
			for _, fn := range observers {
				fn(st)
			}
		}
		p.mu.Lock()
	}
}
