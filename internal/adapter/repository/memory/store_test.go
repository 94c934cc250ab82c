package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/domain"
)

func TestStore_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice, bob := uuid.New(), uuid.New()
	id := uuid.New()

	_, err := s.Save(ctx, alice, id, json.RawMessage(`{"sections":[]}`))
	require.NoError(t, err)

	_, err = s.Load(ctx, bob, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Save(ctx, bob, id, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrNotFound, "another owner cannot overwrite")
	assert.ErrorIs(t, s.Delete(ctx, bob, id), domain.ErrNotFound)

	rec, err := s.Load(ctx, alice, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sections":[]}`, string(rec.Content))
}

func TestStore_SaveKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	owner, id := uuid.New(), uuid.New()
	first, err := s.Save(ctx, owner, id, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	second, err := s.Save(ctx, owner, id, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)

	rec, err := s.Load(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, first, rec.CreatedAt)
	assert.Equal(t, second, rec.UpdatedAt)
	assert.JSONEq(t, `{"v":2}`, string(rec.Content))
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	_, _ = s.Save(ctx, owner, a, json.RawMessage(`{}`))
	time.Sleep(time.Millisecond)
	_, _ = s.Save(ctx, owner, b, json.RawMessage(`{}`))
	_, _ = s.Save(ctx, uuid.New(), uuid.New(), json.RawMessage(`{}`))

	list, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].ID)

	require.NoError(t, s.Delete(ctx, owner, a))
	_, err = s.Load(ctx, owner, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, owner, a), domain.ErrNotFound)
}
