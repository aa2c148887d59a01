package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"workerbot/internal/models"
)

// PGSessions stores conversation sessions in Postgres so a process restart
// resumes every user exactly where they left off.
type PGSessions struct {
	db *sqlx.DB
}

// NewPGSessions wraps the shared connection pool.
func NewPGSessions(db *sqlx.DB) *PGSessions {
	return &PGSessions{db: db}
}

// Get loads a stored session, ErrNoRows when the user never interacted.
func (r *PGSessions) Get(ctx context.Context, userID int64) (*models.SessionRow, error) {
	var row models.SessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT user_id, state, scratch_json, updated_at FROM sessions WHERE user_id = $1`,
		userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}
	return &row, nil
}

// Upsert writes the session row synchronously in one statement.
func (r *PGSessions) Upsert(ctx context.Context, row models.SessionRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, state, scratch_json, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		     state = EXCLUDED.state,
		     scratch_json = EXCLUDED.scratch_json,
		     updated_at = EXCLUDED.updated_at`,
		row.UserID, row.State, row.Scratch, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session %d: %w", row.UserID, err)
	}
	return nil
}
