package service

import (
	"context"
	"errors"
	"log/slog"

	"workerbot/core/logger"
	"workerbot/internal/models"
	"workerbot/internal/storage"
)

// Users manages worker profiles with upsert semantics: re-registration
// overwrites every field.
type Users struct {
	repo storage.Users
}

// NewUsers builds the profile service.
func NewUsers(repo storage.Users) *Users {
	return &Users{repo: repo}
}

// Save writes the profile and reports whether it was newly created.
func (s *Users) Save(ctx context.Context, u models.User) (bool, error) {
	created, err := s.repo.Upsert(ctx, u)
	if err != nil {
		logger.Error(ctx, "service.users", "profile.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", u.UserID),
			slog.String("err", err.Error()),
		)
		return false, &StorageError{Op: "save profile", Err: err}
	}
	logger.Info(ctx, "service.users", "profile.save",
		slog.String("status", "ok"),
		slog.Int64("user_id", u.UserID),
		slog.Bool("created", created),
	)
	return created, nil
}

// Get returns the stored profile or NotFoundError.
func (s *Users) Get(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, storage.ErrNoRows) {
		return nil, &NotFoundError{Entity: "user", ID: userID}
	}
	if err != nil {
		return nil, &StorageError{Op: "get profile", Err: err}
	}
	return u, nil
}
