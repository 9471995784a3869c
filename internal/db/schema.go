package db

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		profile_picture_url TEXT NOT NULL DEFAULT '',
		pin_count INT NOT NULL DEFAULT 0,
		total_likes INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS pins (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		photo_url TEXT NOT NULL DEFAULT '',
		creator_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		creator_username TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pin_likes (
		pin_id UUID NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (pin_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pin_tags (
		pin_id UUID NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		position INT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (pin_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		pin_id UUID NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		sender_id UUID NOT NULL,
		username TEXT NOT NULL,
		message TEXT NOT NULL,
		sent_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		earned BOOLEAN NOT NULL DEFAULT FALSE,
		earned_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS storage_objects (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// InitSchema creates all tables if they do not exist yet.
func InitSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
