package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/model"
)

type LoginAttemptRepository interface {
	Create(ctx context.Context, clientAddr, username string, succeeded bool) (*model.LoginAttempt, error)
	// CountRecentFailures counts failed attempts for the key strictly
	// younger than since. Failures at or before the most recent success are
	// excluded: a success acts as a boundary that resets the effective
	// count.
	CountRecentFailures(ctx context.Context, clientAddr, username string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type loginAttemptRepo struct {
	db *sqlx.DB
}

func NewLoginAttemptRepository(db *sqlx.DB) LoginAttemptRepository {
	return &loginAttemptRepo{db: db}
}

func (r *loginAttemptRepo) Create(ctx context.Context, clientAddr, username string, succeeded bool) (*model.LoginAttempt, error) {
	var attempt model.LoginAttempt
	err := r.db.GetContext(ctx, &attempt, `
		INSERT INTO login_attempts (client_addr, username, succeeded)
		VALUES ($1, $2, $3)
		RETURNING *
	`, clientAddr, username, succeeded)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *loginAttemptRepo) CountRecentFailures(ctx context.Context, clientAddr, username string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM login_attempts
		WHERE client_addr = $1
		AND username = $2
		AND succeeded = FALSE
		AND attempted_at > $3
		AND attempted_at > COALESCE((
			SELECT MAX(attempted_at) FROM login_attempts
			WHERE client_addr = $1
			AND username = $2
			AND succeeded = TRUE
		), 'epoch'::timestamptz)
	`, clientAddr, username, since)
	return count, err
}

func (r *loginAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM login_attempts WHERE attempted_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
