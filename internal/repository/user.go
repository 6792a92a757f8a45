package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByDisplayName(ctx context.Context, displayName string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdateDisplayName(ctx context.Context, id int64, displayName string) error
	UpdateNameColor(ctx context.Context, id int64, nameColor string) error
	TouchLastLogin(ctx context.Context, id int64) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

// userDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type userDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type userRepo struct {
	db userDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE username = $1`, username)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByDisplayName(ctx context.Context, displayName string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE display_name = $1`, displayName)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (username, password_hash, email, display_name, name_color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Username, params.PasswordHash, params.Email, params.DisplayName, params.NameColor)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, id, passwordHash)
	return err
}

func (r *userRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET email = $2 WHERE id = $1
	`, id, email)
	return err
}

func (r *userRepo) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET display_name = $2 WHERE id = $1
	`, id, displayName)
	return err
}

func (r *userRepo) UpdateNameColor(ctx context.Context, id int64, nameColor string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET name_color = $2 WHERE id = $1
	`, id, nameColor)
	return err
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = $2 WHERE id = $1
	`, id, time.Now())
	return err
}
