package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/model"
)

type SessionRepository interface {
	// FindValidByTokenHash returns the session only while it has not
	// expired. Expiry is checked inside the query, so a load can never
	// observe a destroyed or stale record.
	FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// Update is a full overwrite of the mutable fields. It is UPDATE-only:
	// when the token no longer exists the statement affects zero rows and
	// returns nil, so an update racing a delete cannot resurrect a session.
	Update(ctx context.Context, tokenHash string, params model.UpdateSessionParams) error
	// Touch extends expiry for the sliding-TTL refresh.
	Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error
	// UpdateProfile refreshes the denormalized profile fields after a
	// profile change. UPDATE-only, same no-resurrection contract as Update.
	UpdateProfile(ctx context.Context, tokenHash, displayName, nameColor string) error
	// Delete is idempotent; deleting an absent token is not an error.
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE token_hash = $1
		AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (token_hash, user_id, display_name, name_color, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.TokenHash, params.UserID, params.DisplayName, params.NameColor,
		params.Payload, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, tokenHash string, params model.UpdateSessionParams) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			display_name = $2,
			name_color = $3,
			payload = $4,
			expires_at = $5,
			updated_at = $6
		WHERE token_hash = $1
	`, tokenHash, params.DisplayName, params.NameColor, params.Payload,
		params.ExpiresAt, time.Now())
	return err
}

func (r *sessionRepo) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			expires_at = $2,
			updated_at = $3
		WHERE token_hash = $1
		AND expires_at > NOW()
	`, tokenHash, expiresAt, time.Now())
	return err
}

func (r *sessionRepo) UpdateProfile(ctx context.Context, tokenHash, displayName, nameColor string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			display_name = $2,
			name_color = $3,
			updated_at = $4
		WHERE token_hash = $1
	`, tokenHash, displayName, nameColor, time.Now())
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
