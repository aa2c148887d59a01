package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"workerbot/core/logger"
	"workerbot/internal/models"
	"workerbot/internal/storage"
)

// Manager resolves and persists sessions. Every Set is a synchronous write;
// the engine is the only component that mutates session state.
type Manager struct {
	store storage.Sessions
	// ttl > 0 treats sessions idle longer than ttl as expired; 0 keeps
	// them forever. The staleness policy is configuration, not behavior.
	ttl time.Duration
	now func() time.Time
}

// NewManager builds a session manager over the given store.
func NewManager(store storage.Sessions, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Get returns the user's session, or a fresh registration-entry session when
// none is stored or the stored one has expired.
func (m *Manager) Get(ctx context.Context, userID int64) (*Session, error) {
	row, err := m.store.Get(ctx, userID)
	if errors.Is(err, storage.ErrNoRows) {
		return fresh(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get %d: %w", userID, err)
	}
	if m.ttl > 0 && m.now().Sub(row.UpdatedAt) > m.ttl {
		logger.Debug(ctx, "service.sessions", "session.expired",
			slog.Int64("user_id", userID),
			slog.String("state", row.State),
		)
		return fresh(userID), nil
	}

	sess := &Session{UserID: userID, State: State(row.State)}
	if len(row.Scratch) > 0 {
		if err := json.Unmarshal(row.Scratch, &sess.Scratch); err != nil {
			// A corrupt scratch blob must not lock the user out.
			logger.Warn(ctx, "service.sessions", "session.scratch_corrupt",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return fresh(userID), nil
		}
	}
	return sess, nil
}

// Set persists the new state and scratch synchronously.
func (m *Manager) Set(ctx context.Context, userID int64, st State, scratch Scratch) error {
	blob, err := json.Marshal(scratch)
	if err != nil {
		return fmt.Errorf("session marshal %d: %w", userID, err)
	}
	row := models.SessionRow{
		UserID:    userID,
		State:     string(st),
		Scratch:   blob,
		UpdatedAt: m.now(),
	}
	if err := m.store.Upsert(ctx, row); err != nil {
		return fmt.Errorf("session set %d: %w", userID, err)
	}
	logger.Debug(ctx, "service.sessions", "session.set",
		slog.Int64("user_id", userID),
		slog.String("state_to", string(st)),
	)
	return nil
}
