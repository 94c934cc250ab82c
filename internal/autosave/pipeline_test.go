package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/editor"
	"resume-builder/internal/model"
)

const wait = 2 * time.Second

type fakeSaver struct {
	mu          sync.Mutex
	texts       []string
	calls       int
	inflight    int
	maxInflight int
	failFirst   int
	started     chan struct{}
	release     chan struct{}
}

func (s *fakeSaver) Save(ctx context.Context, doc model.Document) (time.Time, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
	if call <= s.failFirst {
		return time.Time{}, errors.New("storage unavailable")
	}
	s.mu.Lock()
	s.texts = append(s.texts, summaryText(doc))
	s.mu.Unlock()
	return time.Date(2024, 3, 1, 9, 0, call, 0, time.UTC), nil
}

func (s *fakeSaver) saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func summaryDoc() model.Document {
	return model.Document{
		Version: model.SchemaVersion,
		Sections: []model.Section{
			{ID: "sum", Type: model.TypeSummary, Title: "Summary", Visible: true, Data: &model.TextBlock{}},
		},
	}
}

func summaryText(doc model.Document) string {
	return doc.Sections[0].Data.(*model.TextBlock).Text
}

type harness struct {
	clock    *manualClock
	session  *editor.Session
	pipeline *Pipeline
	saver    *fakeSaver

	mu     sync.Mutex
	states []State
}

func newHarness(t *testing.T, saver *fakeSaver, opts ...Option) *harness {
	t.Helper()
	h := &harness{clock: newManualClock(), saver: saver}
	h.session = editor.NewSession("doc-1", summaryDoc())
	base := []Option{WithClock(h.clock), WithLogger(slog.New(slog.DiscardHandler)), WithRetry(0, 0)}
	h.pipeline = NewPipeline("doc-1", h.session, saver, append(base, opts...)...)
	h.session.OnChange(func(uint64) { h.pipeline.MarkDirty() })
	h.pipeline.OnStatus(func(st Status) {
		h.mu.Lock()
		h.states = append(h.states, st.State)
		h.mu.Unlock()
	})
	t.Cleanup(h.pipeline.Close)
	return h
}

func (h *harness) edit(t *testing.T, text string) {
	t.Helper()
	_, _, err := h.session.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: text}})
	require.NoError(t, err)
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.pipeline.Status().State == want }, wait, time.Millisecond,
		"state never reached %s (now %s)", want, h.pipeline.Status().State)
}

func (h *harness) seenStates() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.states...)
}

func TestPipeline_BurstCoalescesIntoOneWrite(t *testing.T) {
	h := newHarness(t, &fakeSaver{})

	for i := 1; i <= 5; i++ {
		h.edit(t, fmt.Sprintf("Led the migration, draft %d", i))
		h.clock.Advance(200 * time.Millisecond)
	}
	assert.Equal(t, Dirty, h.pipeline.Status().State)
	assert.Empty(t, h.saver.saved())

	h.clock.Advance(time.Second)
	h.waitState(t, Idle)

	assert.Equal(t, []string{"Led the migration, draft 5"}, h.saver.saved())
	st := h.pipeline.Status()
	assert.False(t, st.Dirty)
	assert.Equal(t, uint64(5), st.SavedRevision)
	assert.False(t, st.LastSavedAt.IsZero())
}

func TestPipeline_EditDuringSaveSchedulesFollowUp(t *testing.T) {
	saver := &fakeSaver{started: make(chan struct{}, 4), release: make(chan struct{})}
	h := newHarness(t, saver)

	h.edit(t, "edit five")
	h.clock.Advance(time.Second)
	<-saver.started

	h.edit(t, "edit six")
	st := h.pipeline.Status()
	assert.Equal(t, Saving, st.State)
	assert.True(t, st.Dirty)

	saver.release <- struct{}{}
	h.waitState(t, Dirty)
	assert.Equal(t, []string{"edit five"}, saver.saved())

	h.clock.Advance(time.Second)
	<-saver.started
	saver.release <- struct{}{}
	h.waitState(t, Idle)

	assert.Equal(t, []string{"edit five", "edit six"}, saver.saved())
	assert.Equal(t, 1, saver.maxInflight)
	require.Eventually(t, func() bool { return len(h.seenStates()) == 7 }, wait, time.Millisecond)
	assert.Equal(t, []State{Dirty, Saving, Saving, Idle, Dirty, Saving, Idle}, h.seenStates())
}

func TestPipeline_QuietElapsedDuringSaveFiresOnSettle(t *testing.T) {
	saver := &fakeSaver{started: make(chan struct{}, 4), release: make(chan struct{})}
	h := newHarness(t, saver)

	h.edit(t, "a")
	h.clock.Advance(time.Second)
	<-saver.started
	h.edit(t, "b")
	h.clock.Advance(time.Second)

	saver.release <- struct{}{}
	<-saver.started
	saver.release <- struct{}{}
	h.waitState(t, Idle)
	assert.Equal(t, []string{"a", "b"}, saver.saved())
}

func TestPipeline_SaveNow(t *testing.T) {
	saver := &fakeSaver{started: make(chan struct{}, 4), release: make(chan struct{})}
	h := newHarness(t, saver)

	h.edit(t, "draft")
	h.pipeline.SaveNow()
	assert.Equal(t, Saving, h.pipeline.Status().State, "save now bypasses the quiet period")
	<-saver.started

	h.pipeline.SaveNow()
	st := h.pipeline.Status()
	assert.Equal(t, Saving, st.State)
	assert.True(t, st.Dirty, "save now while saving is absorbed as a mutation")

	saver.release <- struct{}{}
	h.waitState(t, Dirty)
	h.clock.Advance(time.Second)
	h.waitState(t, Idle)
	assert.Equal(t, []string{"draft"}, saver.saved(), "no new revision, nothing more to write")
}

func TestPipeline_FailureKeepsEditsAndRetries(t *testing.T) {
	saver := &fakeSaver{failFirst: 2}
	h := newHarness(t, saver, WithRetry(time.Second, 4*time.Second))

	h.edit(t, "final text")
	h.clock.Advance(time.Second)
	h.waitState(t, Error)

	st := h.pipeline.Status()
	assert.True(t, st.Dirty)
	assert.Equal(t, 1, st.Failures)
	assert.Contains(t, st.LastError, "storage unavailable")
	assert.Equal(t, uint64(0), st.SavedRevision)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return h.pipeline.Status().Failures == 2 }, wait, time.Millisecond)
	h.waitState(t, Error)

	// second backoff step is twice the base
	h.clock.Advance(time.Second)
	assert.Equal(t, Error, h.pipeline.Status().State)
	h.clock.Advance(time.Second)
	h.waitState(t, Idle)

	st = h.pipeline.Status()
	assert.Equal(t, 0, st.Failures)
	assert.Empty(t, st.LastError)
	assert.Equal(t, []string{"final text"}, saver.saved())
}

func TestPipeline_NoAutoRetryWhenDisabled(t *testing.T) {
	saver := &fakeSaver{failFirst: 1}
	h := newHarness(t, saver)

	h.edit(t, "x")
	h.clock.Advance(time.Second)
	h.waitState(t, Error)
	h.clock.Advance(time.Hour)
	assert.Equal(t, Error, h.pipeline.Status().State)

	h.pipeline.SaveNow()
	h.waitState(t, Idle)
	assert.Equal(t, []string{"x"}, saver.saved())
}

func TestPipeline_EditAfterErrorRestartsQuietPeriod(t *testing.T) {
	saver := &fakeSaver{failFirst: 1}
	h := newHarness(t, saver)

	h.edit(t, "x")
	h.clock.Advance(time.Second)
	h.waitState(t, Error)

	h.edit(t, "xy")
	assert.Equal(t, Dirty, h.pipeline.Status().State)
	h.clock.Advance(time.Second)
	h.waitState(t, Idle)
	assert.Equal(t, []string{"xy"}, saver.saved())
}

func TestPipeline_Flush(t *testing.T) {
	saver := &fakeSaver{}
	h := newHarness(t, saver)

	require.NoError(t, h.pipeline.Flush(context.Background()))
	assert.Empty(t, saver.saved(), "nothing to flush")

	h.edit(t, "pending")
	require.NoError(t, h.pipeline.Flush(context.Background()))
	assert.Equal(t, []string{"pending"}, saver.saved())
	assert.Equal(t, Idle, h.pipeline.Status().State)

	h.pipeline.Close()
	assert.ErrorIs(t, h.pipeline.Flush(context.Background()), ErrClosed)
}

func TestPipeline_SaveTimeout(t *testing.T) {
	saver := &fakeSaver{release: make(chan struct{})}
	h := newHarness(t, saver, WithSaveTimeout(20*time.Millisecond))

	h.edit(t, "slow")
	err := h.pipeline.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaveTimeout)

	st := h.pipeline.Status()
	assert.Equal(t, Error, st.State)
	assert.True(t, st.Dirty)
}

func TestPipeline_AtMostOneWriteInFlight(t *testing.T) {
	saver := &fakeSaver{}
	h := newHarness(t, saver)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, _, _ = h.session.Apply(editor.UpdateSectionDataOp{
					SectionID: "sum",
					Patch:     editor.SetText{Text: fmt.Sprintf("w%d-%d", w, i)},
				})
				if i%5 == 0 {
					h.pipeline.SaveNow()
				}
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, h.pipeline.Flush(context.Background()))

	final, rev := h.session.Snapshot()
	saved := saver.saved()
	require.NotEmpty(t, saved)
	assert.Equal(t, summaryText(final), saved[len(saved)-1])
	assert.Equal(t, rev, h.pipeline.Status().SavedRevision)
	assert.Equal(t, 1, saver.maxInflight)
}

func TestPipeline_Backoff(t *testing.T) {
	p := &Pipeline{retryBase: time.Second, retryMax: 5 * time.Second}
	for failures, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second, 10: 5 * time.Second} {
		p.failures = failures
		assert.Equal(t, want, p.backoff(), "failures=%d", failures)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "saving", Saving.String())
	b, err := Error.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))
}
