package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workerbot/core/logger"
	"workerbot/internal/models"
	"workerbot/internal/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Orders is the order ledger: lifecycle operations over the shared pool.
type Orders struct {
	repo storage.Orders
	now  func() time.Time
}

// NewOrders builds the ledger service.
func NewOrders(repo storage.Orders) *Orders {
	return &Orders{repo: repo, now: time.Now}
}

// Create opens a new active order and returns its id.
func (s *Orders) Create(ctx context.Context, payment int64, address, description string) (int64, error) {
	if payment <= 0 {
		return 0, &ValidationError{Field: "payment", Reason: "must be positive"}
	}
	if address == "" || description == "" {
		return 0, &ValidationError{Field: "order", Reason: "address and description are required"}
	}
	now := s.now()
	id, err := s.repo.Create(ctx, models.Order{
		CreationDate: now.Format(dateLayout),
		CreationTime: now.Format(timeLayout),
		Payment:      payment,
		Address:      address,
		Description:  description,
		Status:       models.OrderActive,
	})
	if err != nil {
		return 0, &StorageError{Op: "create order", Err: err}
	}
	logger.Info(ctx, "service.orders", "order.create",
		slog.String("status", "ok"),
		slog.Int64("order_id", id),
	)
	return id, nil
}

// ListByStatus returns orders in presentation order (see storage.Orders).
func (s *Orders) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	out, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, &StorageError{Op: "list orders", Err: err}
	}
	return out, nil
}

// Get fetches one order in the expected status.
func (s *Orders) Get(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID, status)
	if errors.Is(err, storage.ErrNoRows) {
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}
	if err != nil {
		return nil, &StorageError{Op: "get order", Err: err}
	}
	return o, nil
}

// AttachPhoto stores the photo report on a still-active order.
func (s *Orders) AttachPhoto(ctx context.Context, orderID int64, photoRef string) error {
	updated, err := s.repo.AttachPhoto(ctx, orderID, photoRef)
	if err != nil {
		return &StorageError{Op: "attach photo", Err: err}
	}
	if !updated {
		return &NotFoundError{Entity: "order", ID: orderID}
	}
	logger.Info(ctx, "service.orders", "order.photo",
		slog.String("status", "ok"),
		slog.Int64("order_id", orderID),
	)
	return nil
}

// Complete transitions active -> completed, stamping completion date and
// time. The transition requires an attached photo report; a lost race or a
// missing row surfaces as NotFoundError, a missing photo as
// PreconditionError.
func (s *Orders) Complete(ctx context.Context, orderID int64) (*models.Order, error) {
	now := s.now()
	outcome, err := s.repo.Complete(ctx, orderID, now.Format(dateLayout), now.Format(timeLayout))
	if err != nil {
		return nil, &StorageError{Op: "complete order", Err: err}
	}
	switch outcome {
	case storage.CompleteNoPhoto:
		return nil, &PreconditionError{Reason: "order has no photo report"}
	case storage.CompleteNotActive:
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}

	o, err := s.repo.GetByID(ctx, orderID, models.OrderCompleted)
	if errors.Is(err, storage.ErrNoRows) {
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}
	if err != nil {
		return nil, &StorageError{Op: "get completed order", Err: err}
	}
	logger.Info(ctx, "service.orders", "order.complete",
		slog.String("status", "ok"),
		slog.Int64("order_id", orderID),
	)
	return o, nil
}
