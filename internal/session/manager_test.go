package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workerbot/internal/models"
	"workerbot/internal/storage"
)

func TestManagerFreshSessionForNewUser(t *testing.T) {
	m := NewManager(storage.NewMemorySessions(), 0)

	sess, err := m.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, sess.State)
	assert.Nil(t, sess.Scratch.Draft)
}

func TestManagerRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemorySessions(), 0)
	ctx := context.Background()

	draft := &Draft{FullName: "Иван", Age: 30}
	require.NoError(t, m.Set(ctx, 1, StateAwaitingCity, Scratch{Draft: draft}))

	sess, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCity, sess.State)
	require.NotNil(t, sess.Scratch.Draft)
	assert.Equal(t, "Иван", sess.Scratch.Draft.FullName)
	assert.Equal(t, 30, sess.Scratch.Draft.Age)
}

func TestManagerSurvivesReconstruction(t *testing.T) {
	store := storage.NewMemorySessions()
	ctx := context.Background()

	first := NewManager(store, 0)
	id := int64(7)
	require.NoError(t, first.Set(ctx, 1, StateOrderDetail, Scratch{SelectedOrder: &id}))

	second := NewManager(store, 0)
	sess, err := second.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateOrderDetail, sess.State)
	require.NotNil(t, sess.Scratch.SelectedOrder)
	assert.Equal(t, int64(7), *sess.Scratch.SelectedOrder)
}

func TestManagerTTLExpiry(t *testing.T) {
	store := storage.NewMemorySessions()
	ctx := context.Background()

	m := NewManager(store, 30*time.Minute)
	base := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	require.NoError(t, m.Set(ctx, 1, StateBrowsingOrders, Scratch{}))

	m.now = func() time.Time { return base.Add(29 * time.Minute) }
	sess, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateBrowsingOrders, sess.State)

	m.now = func() time.Time { return base.Add(31 * time.Minute) }
	sess, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, sess.State)
}

func TestManagerCorruptScratchFallsBack(t *testing.T) {
	store := storage.NewMemorySessions()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, models.SessionRow{
		UserID:    1,
		State:     string(StateOrderDetail),
		Scratch:   []byte("{not json"),
		UpdatedAt: time.Now(),
	}))

	m := NewManager(store, 0)
	sess, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, sess.State)
}
