package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"workerbot/internal/models"
)

// PGUsers stores worker profiles in Postgres.
type PGUsers struct {
	db *sqlx.DB
}

// NewPGUsers wraps the shared connection pool.
func NewPGUsers(db *sqlx.DB) *PGUsers {
	return &PGUsers{db: db}
}

const upsertUserQuery = `
INSERT INTO users (user_id, full_name, age, city, experience, desired_income, photo_ref)
VALUES (:user_id, :full_name, :age, :city, :experience, :desired_income, :photo_ref)
ON CONFLICT (user_id) DO UPDATE SET
    full_name      = EXCLUDED.full_name,
    age            = EXCLUDED.age,
    city           = EXCLUDED.city,
    experience     = EXCLUDED.experience,
    desired_income = EXCLUDED.desired_income,
    photo_ref      = EXCLUDED.photo_ref
RETURNING (xmax = 0) AS created`

// Upsert inserts or overwrites the profile in a single statement.
func (r *PGUsers) Upsert(ctx context.Context, u models.User) (bool, error) {
	rows, err := r.db.NamedQueryContext(ctx, upsertUserQuery, u)
	if err != nil {
		return false, fmt.Errorf("upsert user %d: %w", u.UserID, err)
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, fmt.Errorf("upsert user %d: scan: %w", u.UserID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("upsert user %d: %w", u.UserID, err)
	}
	return created, nil
}

// GetByID fetches the profile row, ErrNoRows when absent.
func (r *PGUsers) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT user_id, full_name, age, city, experience, desired_income, photo_ref
		 FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &u, nil
}
