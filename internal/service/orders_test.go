package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workerbot/internal/models"
	"workerbot/internal/storage"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestOrdersCreateValidation(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, "адрес", "описание")
	assert.True(t, IsValidation(err))

	_, err = svc.Create(ctx, -100, "адрес", "описание")
	assert.True(t, IsValidation(err))

	_, err = svc.Create(ctx, 5000, "", "описание")
	assert.True(t, IsValidation(err))

	_, err = svc.Create(ctx, 5000, "адрес", "")
	assert.True(t, IsValidation(err))
}

func TestOrdersCreateStampsCreation(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	svc.now = fixedClock(time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	id, err := svc.Create(ctx, 5000, "ул. Тестовая, д. 1", "доставка")
	require.NoError(t, err)

	o, err := svc.Get(ctx, id, models.OrderActive)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", o.CreationDate)
	assert.Equal(t, "10:00:00", o.CreationTime)
	assert.Equal(t, models.OrderActive, o.Status)
	assert.Nil(t, o.CompletionDate)
}

func TestOrdersCompleteRequiresPhoto(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	ctx := context.Background()

	id, err := svc.Create(ctx, 5000, "адрес", "описание")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, id)
	assert.True(t, IsPrecondition(err))

	require.NoError(t, svc.AttachPhoto(ctx, id, "p1"))

	o, err := svc.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)
	require.NotNil(t, o.CompletionDate)
	require.NotNil(t, o.CompletionTime)
}

func TestOrdersCompleteTwice(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	ctx := context.Background()

	id, err := svc.Create(ctx, 5000, "адрес", "описание")
	require.NoError(t, err)
	require.NoError(t, svc.AttachPhoto(ctx, id, "p1"))

	first, err := svc.Complete(ctx, id)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, id)
	assert.True(t, IsNotFound(err))

	// The losing attempt leaves the completion stamp alone.
	again, err := svc.Get(ctx, id, models.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, *first.CompletionDate, *again.CompletionDate)
	assert.Equal(t, *first.CompletionTime, *again.CompletionTime)
}

func TestOrdersConcurrentCompleteOneWinner(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	ctx := context.Background()

	id, err := svc.Create(ctx, 5000, "адрес", "описание")
	require.NoError(t, err)
	require.NoError(t, svc.AttachPhoto(ctx, id, "p1"))

	const attempts = 16
	wins := make(chan struct{}, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, id); err == nil {
				wins <- struct{}{}
			} else {
				assert.True(t, IsNotFound(err))
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestOrdersAttachPhotoToMissingOrder(t *testing.T) {
	svc := NewOrders(storage.NewMemoryOrders())
	err := svc.AttachPhoto(context.Background(), 404, "p1")
	assert.True(t, IsNotFound(err))
}

func TestOrdersListOrdering(t *testing.T) {
	repo := storage.NewMemoryOrders()
	svc := NewOrders(repo)
	ctx := context.Background()

	clock := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		svc.now = fixedClock(clock.Add(time.Duration(i) * time.Hour))
		_, err := svc.Create(ctx, 1000*int64(i+1), "адрес", "описание")
		require.NoError(t, err)
	}

	active, err := svc.ListByStatus(ctx, models.OrderActive)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, int64(1), active[0].OrderID)
	assert.Equal(t, int64(3), active[2].OrderID)

	// Complete in creation order; the completed list shows newest first.
	for _, o := range active {
		require.NoError(t, svc.AttachPhoto(ctx, o.OrderID, "p"))
		svc.now = fixedClock(clock.Add(time.Duration(o.OrderID) * 24 * time.Hour))
		_, err := svc.Complete(ctx, o.OrderID)
		require.NoError(t, err)
	}

	done, err := svc.ListByStatus(ctx, models.OrderCompleted)
	require.NoError(t, err)
	require.Len(t, done, 3)
	assert.Equal(t, int64(3), done[0].OrderID)
	assert.Equal(t, int64(1), done[2].OrderID)
}
