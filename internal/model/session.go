package model

import (
	"encoding/json"
	"time"
)

// Session is the durable record behind one login. The raw token never
// touches the database; only its keyed hash does. DisplayName and NameColor
// are denormalized from the user row so identity resolution costs one read.
type Session struct {
	TokenHash   string           `db:"token_hash" json:"-"`
	UserID      *int64           `db:"user_id" json:"userId,omitempty"`
	DisplayName string           `db:"display_name" json:"displayName"`
	NameColor   string           `db:"name_color" json:"nameColor"`
	Payload     *json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	ExpiresAt   time.Time        `db:"expires_at" json:"expiresAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

type CreateSessionParams struct {
	TokenHash   string
	UserID      *int64
	DisplayName string
	NameColor   string
	Payload     *json.RawMessage
	ExpiresAt   time.Time
}

// UpdateSessionParams is a full overwrite of the mutable session fields.
type UpdateSessionParams struct {
	DisplayName string
	NameColor   string
	Payload     *json.RawMessage
	ExpiresAt   time.Time
}
