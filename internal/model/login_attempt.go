package model

import (
	"time"
)

// LoginAttempt rows are append-only; they are never mutated, only pruned
// once they age out of any lockout window.
type LoginAttempt struct {
	ID          int64     `db:"id" json:"id"`
	ClientAddr  string    `db:"client_addr" json:"clientAddr"`
	Username    string    `db:"username" json:"username"`
	Succeeded   bool      `db:"succeeded" json:"succeeded"`
	AttemptedAt time.Time `db:"attempted_at" json:"attemptedAt"`
}
