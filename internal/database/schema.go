package database

import "context"

// Schema is applied at startup. Statements are idempotent so a restart
// against an already-initialized database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	display_name TEXT UNIQUE NOT NULL,
	name_color TEXT NOT NULL DEFAULT '000000',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sessions (
	token_hash TEXT PRIMARY KEY,
	user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
	display_name TEXT NOT NULL DEFAULT '',
	name_color TEXT NOT NULL DEFAULT '',
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);

CREATE TABLE IF NOT EXISTS chat_messages (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS comments (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS comment_votes (
	user_id BIGINT NOT NULL REFERENCES users(id),
	comment_id BIGINT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
	vote SMALLINT NOT NULL,
	PRIMARY KEY (user_id, comment_id)
);

CREATE TABLE IF NOT EXISTS login_attempts (
	id BIGSERIAL PRIMARY KEY,
	client_addr TEXT NOT NULL,
	username TEXT NOT NULL,
	succeeded BOOLEAN NOT NULL,
	attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_login_attempts_key
	ON login_attempts (client_addr, username, attempted_at);
`

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
