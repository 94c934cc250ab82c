package autosave

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/editor"
)

func TestManager_OpenReturnsSamePipeline(t *testing.T) {
	m := NewManager(WithClock(newManualClock()), WithLogger(slog.New(slog.DiscardHandler)))
	s := editor.NewSession("a", summaryDoc())

	p1 := m.Open("a", s, &fakeSaver{})
	p2 := m.Open("a", s, &fakeSaver{})
	assert.Same(t, p1, p2)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Same(t, p1, got)
	assert.Equal(t, 1, m.Len())
}

func TestManager_CloseFlushes(t *testing.T) {
	m := NewManager(WithClock(newManualClock()), WithLogger(slog.New(slog.DiscardHandler)))
	saver := &fakeSaver{}
	s := editor.NewSession("a", summaryDoc())
	p := m.Open("a", s, saver)
	s.OnChange(func(uint64) { p.MarkDirty() })

	_, _, err := s.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: "bye"}})
	require.NoError(t, err)

	require.NoError(t, m.Close(context.Background(), "a"))
	assert.Equal(t, []string{"bye"}, saver.saved())
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.NoError(t, m.Close(context.Background(), "a"), "closing an unknown id is a no-op")
}

func TestManager_FlushAllIndependentDocuments(t *testing.T) {
	m := NewManager(WithClock(newManualClock()), WithLogger(slog.New(slog.DiscardHandler)), WithRetry(0, 0))
	ok, failing := &fakeSaver{}, &fakeSaver{failFirst: 1}

	for id, saver := range map[string]*fakeSaver{"ok": ok, "failing": failing} {
		s := editor.NewSession(id, summaryDoc())
		p := m.Open(id, s, saver)
		s.OnChange(func(uint64) { p.MarkDirty() })
		_, _, err := s.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: id}})
		require.NoError(t, err)
	}

	err := m.FlushAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failing")
	assert.Equal(t, []string{"ok"}, ok.saved())

	require.NoError(t, m.CloseAll(context.Background()), "the failed document is retried on close")
	assert.Equal(t, []string{"failing"}, failing.saved())
	assert.Equal(t, 0, m.Len())
}

func TestManager_DiscardWaitsForWriteInFlight(t *testing.T) {
	m := NewManager(WithClock(newManualClock()), WithLogger(slog.New(slog.DiscardHandler)))
	saver := &fakeSaver{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := editor.NewSession("a", summaryDoc())
	p := m.Open("a", s, saver)
	s.OnChange(func(uint64) { p.MarkDirty() })

	_, _, err := s.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: "first"}})
	require.NoError(t, err)
	p.SaveNow()
	<-saver.started
	_, _, err = s.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: "second"}})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Discard(context.Background(), "a") }()
	select {
	case <-done:
		t.Fatal("discard returned while a write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(saver.release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"first"}, saver.saved(), "pending edits are dropped")
	assert.NotEqual(t, Saving, p.Status().State)
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestManager_DiscardHonoursContext(t *testing.T) {
	m := NewManager(WithClock(newManualClock()), WithLogger(slog.New(slog.DiscardHandler)))
	saver := &fakeSaver{started: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(saver.release)
	s := editor.NewSession("a", summaryDoc())
	p := m.Open("a", s, saver)
	s.OnChange(func(uint64) { p.MarkDirty() })

	_, _, err := s.Apply(editor.UpdateSectionDataOp{SectionID: "sum", Patch: editor.SetText{Text: "x"}})
	require.NoError(t, err)
	p.SaveNow()
	<-saver.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Discard(ctx, "a"), context.Canceled)
}
