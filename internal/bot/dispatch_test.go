package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workerbot/internal/session"
)

// Concurrent events for one user must apply as if delivered sequentially:
// each turn reads the session, transitions once, writes it back.
func TestDispatcherSerializesPerUser(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.engine)
	ctx := context.Background()

	f.handle(t, command("start"))
	f.handle(t, text("Иван"))

	// From awaiting_age, four "30" inputs land deterministically: age,
	// city, experience, income. Extra ones re-prompt on the photo step.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Do(ctx, Event{UserID: testUser, Kind: EventText, Text: "30"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := f.manager.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingPhoto, sess.State)
	require.NotNil(t, sess.Scratch.Draft)
	assert.Equal(t, "Иван", sess.Scratch.Draft.FullName)
	assert.Equal(t, 30, sess.Scratch.Draft.Age)
	assert.Equal(t, "30", sess.Scratch.Draft.City)
	assert.Equal(t, "30", sess.Scratch.Draft.Experience)
	assert.Equal(t, int64(30), sess.Scratch.Draft.DesiredIncome)
}

func TestDispatcherReleasesIdleLocks(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.engine)
	ctx := context.Background()

	var wg sync.WaitGroup
	for u := int64(1); u <= 8; u++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, err := d.Do(ctx, Event{UserID: u, Kind: EventCommand, Text: "start"})
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.locks)
}
