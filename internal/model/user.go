package model

import (
	"time"
)

type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Email        string     `db:"email" json:"email"`
	DisplayName  string     `db:"display_name" json:"displayName"`
	NameColor    string     `db:"name_color" json:"nameColor"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
	Email        string
	DisplayName  string
	NameColor    string
}
