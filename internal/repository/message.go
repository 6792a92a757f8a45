package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/model"
)

type ChatMessageRepository interface {
	// Create assigns the message id and timestamp at insert time and
	// returns the row joined with the author's profile fields.
	Create(ctx context.Context, params model.CreateChatMessageParams) (*model.BroadcastMessage, error)
	FindByID(ctx context.Context, id int64) (*model.BroadcastMessage, error)
	// FindRecent returns the newest messages in ascending id order.
	FindRecent(ctx context.Context, limit int) ([]model.BroadcastMessage, error)
	// FindBefore pages backwards through history from the given id.
	FindBefore(ctx context.Context, beforeID int64, limit int) ([]model.BroadcastMessage, error)
	Count(ctx context.Context) (int, error)
}

type chatMessageRepo struct {
	db *sqlx.DB
}

func NewChatMessageRepository(db *sqlx.DB) ChatMessageRepository {
	return &chatMessageRepo{db: db}
}

func (r *chatMessageRepo) Create(ctx context.Context, params model.CreateChatMessageParams) (*model.BroadcastMessage, error) {
	var msg model.BroadcastMessage
	err := r.db.GetContext(ctx, &msg, `
		WITH inserted AS (
			INSERT INTO chat_messages (user_id, text)
			VALUES ($1, $2)
			RETURNING id, user_id, text, created_at
		)
		SELECT
			inserted.id,
			inserted.text,
			inserted.created_at,
			users.display_name,
			users.name_color
		FROM inserted
		JOIN users ON users.id = inserted.user_id
	`, params.UserID, params.Text)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatMessageRepo) FindByID(ctx context.Context, id int64) (*model.BroadcastMessage, error) {
	var msg model.BroadcastMessage
	err := r.db.GetContext(ctx, &msg, `
		SELECT
			m.id,
			m.text,
			m.created_at,
			u.display_name,
			u.name_color
		FROM chat_messages AS m
		JOIN users AS u ON m.user_id = u.id
		WHERE m.id = $1
	`, id)
	return HandleNotFound(&msg, err)
}

func (r *chatMessageRepo) FindRecent(ctx context.Context, limit int) ([]model.BroadcastMessage, error) {
	var msgs []model.BroadcastMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT
				m.id,
				m.text,
				m.created_at,
				u.display_name,
				u.name_color
			FROM chat_messages AS m
			JOIN users AS u ON m.user_id = u.id
			ORDER BY m.id DESC
			LIMIT $1
		) AS page
		ORDER BY page.id ASC
	`, limit)
	return msgs, err
}

func (r *chatMessageRepo) FindBefore(ctx context.Context, beforeID int64, limit int) ([]model.BroadcastMessage, error) {
	var msgs []model.BroadcastMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT
				m.id,
				m.text,
				m.created_at,
				u.display_name,
				u.name_color
			FROM chat_messages AS m
			JOIN users AS u ON m.user_id = u.id
			WHERE m.id < $1
			ORDER BY m.id DESC
			LIMIT $2
		) AS page
		ORDER BY page.id ASC
	`, beforeID, limit)
	return msgs, err
}

func (r *chatMessageRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_messages`)
	return count, err
}
