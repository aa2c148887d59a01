package storage

import (
	"context"
	"sort"
	"sync"

	"workerbot/internal/models"
)

// The in-memory repositories mirror the Postgres semantics, including the
// conditional mutations, and back the engine tests.

// MemoryUsers is an in-memory Users implementation.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[int64]models.User
}

// NewMemoryUsers constructs an empty in-memory user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[int64]models.User)}
}

// Upsert inserts or overwrites the profile.
func (r *MemoryUsers) Upsert(_ context.Context, u models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.users[u.UserID]
	r.users[u.UserID] = u
	return !exists, nil
}

// GetByID fetches a stored profile.
func (r *MemoryUsers) GetByID(_ context.Context, userID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNoRows
	}
	return &u, nil
}

// MemoryOrders is an in-memory Orders implementation.
type MemoryOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]models.Order
}

// NewMemoryOrders constructs an empty in-memory order store.
func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{nextID: 1, orders: make(map[int64]models.Order)}
}

// Create assigns the next id and stores the order.
func (r *MemoryOrders) Create(_ context.Context, o models.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.OrderID = r.nextID
	r.nextID++
	r.orders[o.OrderID] = o
	return o.OrderID, nil
}

// ListByStatus returns orders in the same order the SQL queries produce.
func (r *MemoryOrders) ListByStatus(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	if status == models.OrderCompleted {
		sort.Slice(out, func(i, j int) bool {
			di, dj := deref(out[i].CompletionDate), deref(out[j].CompletionDate)
			if di != dj {
				return di > dj
			}
			return deref(out[i].CompletionTime) > deref(out[j].CompletionTime)
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	}
	return out, nil
}

// GetByID fetches one order constrained to the expected status.
func (r *MemoryOrders) GetByID(_ context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != status {
		return nil, ErrNoRows
	}
	return &o, nil
}

// AttachPhoto sets the photo report only while the order is active.
func (r *MemoryOrders) AttachPhoto(_ context.Context, orderID int64, photoRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != models.OrderActive {
		return false, nil
	}
	o.PhotoReport = &photoRef
	r.orders[orderID] = o
	return true, nil
}

// Complete performs the guarded active -> completed transition under the
// store lock, so concurrent attempts see exactly one winner.
func (r *MemoryOrders) Complete(_ context.Context, orderID int64, date, tm string) (CompleteOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != models.OrderActive {
		return CompleteNotActive, nil
	}
	if o.PhotoReport == nil {
		return CompleteNoPhoto, nil
	}
	o.Status = models.OrderCompleted
	o.CompletionDate = &date
	o.CompletionTime = &tm
	r.orders[orderID] = o
	return CompleteOK, nil
}

// Count returns the number of stored orders.
func (r *MemoryOrders) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders), nil
}

// MemorySessions is an in-memory Sessions implementation. It survives manager
// reconstruction, which is what the restart tests rely on.
type MemorySessions struct {
	mu   sync.RWMutex
	rows map[int64]models.SessionRow
}

// NewMemorySessions constructs an empty in-memory session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{rows: make(map[int64]models.SessionRow)}
}

// Get loads a stored session.
func (r *MemorySessions) Get(_ context.Context, userID int64) (*models.SessionRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, ErrNoRows
	}
	cp := row
	cp.Scratch = append([]byte(nil), row.Scratch...)
	return &cp, nil
}

// Upsert stores the session row.
func (r *MemorySessions) Upsert(_ context.Context, row models.SessionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.Scratch = append([]byte(nil), row.Scratch...)
	r.rows[row.UserID] = row
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
