package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, userID int64, text string) (*model.Comment, error)
	// FindPage returns comments newest-first with vote totals and the
	// viewer's own vote.
	FindPage(ctx context.Context, viewerID int64, limit, offset int) ([]model.CommentWithAuthor, error)
	Count(ctx context.Context) (int, error)
	FindVote(ctx context.Context, userID, commentID int64) (*int, error)
	UpsertVote(ctx context.Context, userID, commentID int64, vote int) error
	DeleteVote(ctx context.Context, userID, commentID int64) error
	Exists(ctx context.Context, commentID int64) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) CommentRepository
}

type commentDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type commentRepo struct {
	db commentDB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) WithTx(tx *sqlx.Tx) CommentRepository {
	return &commentRepo{db: tx}
}

func (r *commentRepo) Create(ctx context.Context, userID int64, text string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, `
		INSERT INTO comments (user_id, text)
		VALUES ($1, $2)
		RETURNING *
	`, userID, text)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) FindPage(ctx context.Context, viewerID int64, limit, offset int) ([]model.CommentWithAuthor, error) {
	var comments []model.CommentWithAuthor
	err := r.db.SelectContext(ctx, &comments, `
		SELECT
			c.id,
			c.text,
			c.created_at,
			u.display_name,
			u.name_color,
			COALESCE(SUM(v.vote), 0)::int AS points,
			MAX(CASE WHEN v.user_id = $1 THEN v.vote END)::int AS viewer_vote
		FROM comments AS c
		LEFT JOIN comment_votes AS v ON v.comment_id = c.id
		JOIN users AS u ON c.user_id = u.id
		GROUP BY c.id, u.display_name, u.name_color
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3
	`, viewerID, limit, offset)
	return comments, err
}

func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments`)
	return count, err
}

func (r *commentRepo) FindVote(ctx context.Context, userID, commentID int64) (*int, error) {
	var vote int
	err := r.db.GetContext(ctx, &vote, `
		SELECT vote FROM comment_votes
		WHERE user_id = $1 AND comment_id = $2
	`, userID, commentID)
	return HandleNotFound(&vote, err)
}

func (r *commentRepo) UpsertVote(ctx context.Context, userID, commentID int64, vote int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comment_votes (user_id, comment_id, vote)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, comment_id)
		DO UPDATE SET vote = EXCLUDED.vote
	`, userID, commentID, vote)
	return err
}

func (r *commentRepo) DeleteVote(ctx context.Context, userID, commentID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_votes
		WHERE user_id = $1 AND comment_id = $2
	`, userID, commentID)
	return err
}

func (r *commentRepo) Exists(ctx context.Context, commentID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)
	`, commentID)
	return exists, err
}
