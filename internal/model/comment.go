package model

import (
	"time"
)

type Comment struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CommentWithAuthor is a comment joined with author profile fields, its vote
// total and the requesting viewer's own vote (nil when the viewer has not
// voted).
type CommentWithAuthor struct {
	ID          int64     `db:"id" json:"id"`
	Text        string    `db:"text" json:"text"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	DisplayName string    `db:"display_name" json:"displayName"`
	NameColor   string    `db:"name_color" json:"nameColor"`
	Points      int       `db:"points" json:"points"`
	ViewerVote  *int      `db:"viewer_vote" json:"viewerVote,omitempty"`
}

const (
	VoteUp   = 1
	VoteDown = -1
)
