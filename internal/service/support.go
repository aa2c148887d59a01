package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"workerbot/core/logger"
)

// Notifier delivers a message to a fixed operator identity. The transport
// adapter provides the implementation once the bot is running.
type Notifier interface {
	Notify(operatorID int64, text string) error
}

// Sender identifies the user whose message is being escalated.
type Sender struct {
	ID   int64
	Name string
}

// Support forwards free-text messages to the support operator. Forward
// failures are reported to the caller as DeliveryError and never retried.
type Support struct {
	operatorID int64
	notifier   atomic.Pointer[Notifier]
	now        func() time.Time
}

// NewSupport builds the support bridge for the configured operator id.
func NewSupport(operatorID int64) *Support {
	return &Support{operatorID: operatorID, now: time.Now}
}

// SetNotifier wires the delivery transport; safe to call after startup.
func (s *Support) SetNotifier(n Notifier) {
	if n == nil {
		return
	}
	s.notifier.Store(&n)
}

// Forward relays one message to the operator, prefixed with the sender
// identity and timestamp.
func (s *Support) Forward(ctx context.Context, from Sender, message string) error {
	n := s.notifier.Load()
	if n == nil || s.operatorID == 0 {
		return &DeliveryError{Err: fmt.Errorf("support operator not configured")}
	}

	text := fmt.Sprintf(
		"❗️ Новое сообщение в техподдержку\n\nОт: %s (%d)\nВремя: %s\nСообщение: %s",
		from.Name, from.ID, s.now().Format("2006-01-02 15:04:05"), message,
	)
	if err := (*n).Notify(s.operatorID, text); err != nil {
		logger.Error(ctx, "service.support", "forward",
			slog.String("status", "fail"),
			slog.Int64("user_id", from.ID),
			slog.String("err", err.Error()),
		)
		return &DeliveryError{Err: err}
	}
	logger.Info(ctx, "service.support", "forward",
		slog.String("status", "ok"),
		slog.Int64("user_id", from.ID),
	)
	return nil
}
