package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workerbot/internal/models"
)

func TestSeedDemoOrders(t *testing.T) {
	repo := NewMemoryOrders()
	ctx := context.Background()

	require.NoError(t, SeedDemoOrders(ctx, repo))

	active, err := repo.ListByStatus(ctx, models.OrderActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Equal(t, int64(5000), active[0].Payment)
	assert.Equal(t, "ул. Тестовая, д. 1", active[0].Address)

	done, err := repo.ListByStatus(ctx, models.OrderCompleted)
	require.NoError(t, err)
	assert.Len(t, done, 2)

	// A second run must not duplicate fixtures.
	require.NoError(t, SeedDemoOrders(ctx, repo))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
