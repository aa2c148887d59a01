package bot

import (
	"context"
	"sync"
)

// Dispatcher serializes event handling per user. Telegram delivers one
// user's updates in order, but transport handlers run on separate
// goroutines; taking a per-user lock around each turn keeps the
// read-modify-write cycle on one session strictly sequential without a
// global lock across users.
type Dispatcher struct {
	engine *Engine

	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher builds a dispatcher over the engine.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine, locks: make(map[int64]*userLock)}
}

// Do runs one event under the user's lock and returns the replies.
func (d *Dispatcher) Do(ctx context.Context, ev Event) ([]Instruction, error) {
	l := d.acquire(ev.UserID)
	l.mu.Lock()
	defer func() {
		l.mu.Unlock()
		d.release(ev.UserID, l)
	}()
	return d.engine.HandleEvent(ctx, ev)
}

func (d *Dispatcher) acquire(userID int64) *userLock {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[userID]
	if !ok {
		l = &userLock{}
		d.locks[userID] = l
	}
	l.refs++
	return l
}

// release drops the reference and forgets the lock once nobody waits on it,
// so idle users cost no memory.
func (d *Dispatcher) release(userID int64, l *userLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, userID)
	}
}
