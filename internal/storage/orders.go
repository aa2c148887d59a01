package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"workerbot/internal/models"
)

// PGOrders stores the shared order pool in Postgres.
type PGOrders struct {
	db *sqlx.DB
}

// NewPGOrders wraps the shared connection pool.
func NewPGOrders(db *sqlx.DB) *PGOrders {
	return &PGOrders{db: db}
}

const orderColumns = `order_id, creation_date, creation_time, completion_date,
	completion_time, payment, address, description, status, photo_report`

// Create inserts a new order row and returns its generated id.
func (r *PGOrders) Create(ctx context.Context, o models.Order) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO orders (creation_date, creation_time, completion_date,
		     completion_time, payment, address, description, status, photo_report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING order_id`,
		o.CreationDate, o.CreationTime, o.CompletionDate, o.CompletionTime,
		o.Payment, o.Address, o.Description, o.Status, o.PhotoReport,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// ListByStatus returns orders of one status in their presentation order:
// active ascending by id, completed newest-finished first.
func (r *PGOrders) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orderBy := "order_id ASC"
	if status == models.OrderCompleted {
		orderBy = "completion_date DESC, completion_time DESC"
	}
	var out []models.Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE status = $1 ORDER BY %s`, orderColumns, orderBy)
	if err := r.db.SelectContext(ctx, &out, query, status); err != nil {
		return nil, fmt.Errorf("list %s orders: %w", status, err)
	}
	return out, nil
}

// GetByID fetches one order constrained to the expected status.
func (r *PGOrders) GetByID(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	var o models.Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE order_id = $1 AND status = $2`, orderColumns)
	err := r.db.GetContext(ctx, &o, query, orderID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &o, nil
}

// AttachPhoto stores the photo report with a conditional update so the write
// is lost-update free: a concurrently completed order is left untouched.
func (r *PGOrders) AttachPhoto(ctx context.Context, orderID int64, photoRef string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET photo_report = $1 WHERE order_id = $2 AND status = 'active'`,
		photoRef, orderID)
	if err != nil {
		return false, fmt.Errorf("attach photo to order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attach photo to order %d: %w", orderID, err)
	}
	return n > 0, nil
}

// Complete performs the active -> completed transition in one guarded
// statement. When zero rows match, a follow-up read classifies the refusal;
// the classification is advisory only, the mutation itself already failed
// atomically.
func (r *PGOrders) Complete(ctx context.Context, orderID int64, date, tm string) (CompleteOutcome, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = 'completed', completion_date = $1, completion_time = $2
		 WHERE order_id = $3 AND status = 'active' AND photo_report IS NOT NULL`,
		date, tm, orderID)
	if err != nil {
		return CompleteNotActive, fmt.Errorf("complete order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CompleteNotActive, fmt.Errorf("complete order %d: %w", orderID, err)
	}
	if n > 0 {
		return CompleteOK, nil
	}

	var status models.OrderStatus
	err = r.db.QueryRowxContext(ctx,
		`SELECT status FROM orders WHERE order_id = $1`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return CompleteNotActive, nil
	}
	if err != nil {
		return CompleteNotActive, fmt.Errorf("classify order %d: %w", orderID, err)
	}
	if status == models.OrderActive {
		return CompleteNoPhoto, nil
	}
	return CompleteNotActive, nil
}

// Count returns the total number of orders of any status.
func (r *PGOrders) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
