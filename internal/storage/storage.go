package storage

import (
	"context"
	"errors"

	"workerbot/internal/models"
)

// ErrNoRows is returned by lookups when the requested row does not exist.
var ErrNoRows = errors.New("storage: no rows")

// CompleteOutcome classifies the result of a completion attempt.
type CompleteOutcome int

const (
	// CompleteOK means the order transitioned active -> completed.
	CompleteOK CompleteOutcome = iota
	// CompleteNotActive means no active row with that id exists.
	CompleteNotActive
	// CompleteNoPhoto means the order is active but has no photo report.
	CompleteNoPhoto
)

// Users persists worker profiles.
type Users interface {
	// Upsert inserts or fully overwrites the profile row.
	// The returned flag is true when a new row was created.
	Upsert(ctx context.Context, u models.User) (created bool, err error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

// Orders is the durable side of the order ledger. Mutations are single
// conditional statements guarded by the active status so racing writers
// cannot interleave a read-modify-write on the same row.
type Orders interface {
	Create(ctx context.Context, o models.Order) (int64, error)
	// ListByStatus returns active orders ascending by id and completed
	// orders by completion date/time descending.
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetByID(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error)
	// AttachPhoto sets the photo report only while the order is active.
	AttachPhoto(ctx context.Context, orderID int64, photoRef string) (updated bool, err error)
	// Complete stamps completion date/time; the update requires an active
	// status and a non-null photo report.
	Complete(ctx context.Context, orderID int64, date, tm string) (CompleteOutcome, error)
	Count(ctx context.Context) (int, error)
}

// Sessions persists per-user conversation state.
type Sessions interface {
	// Get returns ErrNoRows when the user has no stored session.
	Get(ctx context.Context, userID int64) (*models.SessionRow, error)
	Upsert(ctx context.Context, row models.SessionRow) error
}
