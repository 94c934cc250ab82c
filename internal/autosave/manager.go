package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager keeps one pipeline per open document. Pipelines of different
// documents save independently.
type Manager struct {
	mu        sync.Mutex
	pipelines map[string]*Pipeline
	opts      []Option
}

// NewManager applies opts to every pipeline it opens.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		pipelines: make(map[string]*Pipeline),
		opts:      opts,
	}
}

// Open returns the pipeline for id, creating it on first use.
func (m *Manager) Open(id string, src Source, saver Saver) *Pipeline {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pipelines[id]; ok {
		return p
	}
	p := NewPipeline(id, src, saver, m.opts...)
	m.pipelines[id] = p
	return p
}

func (m *Manager) Get(id string) (*Pipeline, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pipelines[id]
	return p, ok
}

// Close flushes and stops the pipeline of id. The pipeline is dropped even
// when the flush fails; the error is returned so the caller can report it.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	p, ok := m.pipelines[id]
	delete(m.pipelines, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	err := p.Flush(ctx)
	p.Close()
	return err
}

// Discard stops the pipeline of id without saving pending edits and returns
// once no write of it is in flight. Used when the document itself is
// deleted.
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	p, ok := m.pipelines[id]
	delete(m.pipelines, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Stop(ctx)
}

// FlushAll flushes every open pipeline concurrently.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	pipelines := make([]*Pipeline, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		pipelines = append(pipelines, p)
	}
	m.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, p := range pipelines {
		wg.Add(1)
		go func(p *Pipeline) {
			defer wg.Done()
			if err := p.Flush(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("flush %s: %w", p.ID(), err))
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// CloseAll flushes and stops every pipeline.
func (m *Manager) CloseAll(ctx context.Context) error {
	err := m.FlushAll(ctx)
	m.mu.Lock()
	for id, p := range m.pipelines {
		p.Close()
		delete(m.pipelines, id)
	}
	m.mu.Unlock()
	return err
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pipelines)
}
