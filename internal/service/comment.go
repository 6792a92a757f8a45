package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/config"
	"github.com/bogobit/community-server-go/internal/database"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
)

const maxCommentLength = 4000

type CommentService struct {
	db       *database.DB
	comments repository.CommentRepository
}

func NewCommentService(db *database.DB, comments repository.CommentRepository) *CommentService {
	return &CommentService{
		db:       db,
		comments: comments,
	}
}

type CommentPage struct {
	Comments      []model.CommentWithAuthor `json:"comments"`
	Page          int                       `json:"page"`
	TotalPages    int                       `json:"totalPages"`
	TotalComments int                       `json:"totalComments"`
}

// List returns one page of comments, newest first. Out-of-range page
// numbers are clamped instead of erroring, matching how the listing is
// driven from a query parameter.
func (s *CommentService) List(ctx context.Context, viewerID int64, page int) (*CommentPage, error) {
	total, err := s.comments.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	totalPages := (total + config.CommentPageSize - 1) / config.CommentPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * config.CommentPageSize
	comments, err := s.comments.FindPage(ctx, viewerID, config.CommentPageSize, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &CommentPage{
		Comments:      comments,
		Page:          page,
		TotalPages:    totalPages,
		TotalComments: total,
	}, nil
}

func (s *CommentService) Add(ctx context.Context, userID int64, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ValidationError("Comment cannot be empty")
	}
	if len(text) > maxCommentLength {
		return nil, apperrors.InvalidInput("comment", "too long")
	}

	comment, err := s.comments.Create(ctx, userID, text)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("commentId", comment.ID).Int64("userId", userID).Msg("comment posted")

	return comment, nil
}

// Vote applies the toggle semantics: repeating the current vote removes it,
// any other vote overrides. The read-then-write runs in one transaction so
// two rapid clicks cannot double-apply.
func (s *CommentService) Vote(ctx context.Context, userID, commentID int64, vote int) error {
	if vote != model.VoteUp && vote != model.VoteDown {
		return apperrors.InvalidInput("vote", "must be 1 or -1")
	}

	exists, err := s.comments.Exists(ctx, commentID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !exists {
		return apperrors.NotFound("Comment")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.comments.WithTx(tx)

		current, err := repo.FindVote(ctx, userID, commentID)
		if err != nil {
			return err
		}
		if current != nil && *current == vote {
			return repo.DeleteVote(ctx, userID, commentID)
		}
		return repo.UpsertVote(ctx, userID, commentID, vote)
	})
	if err != nil {
		return apperrors.Database(err)
	}

	return nil
}
