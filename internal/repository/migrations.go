package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS oauth_tokens (
		id INT PRIMARY KEY,
		token_data TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS publish_queue (
		id BIGSERIAL PRIMARY KEY,
		content_id BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		tiktok_post_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS publish_queue_status_idx ON publish_queue (status)`,
	`CREATE TABLE IF NOT EXISTS publish_records (
		id BIGSERIAL PRIMARY KEY,
		content_id BIGINT NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		tiktok_post_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS publish_records_status_idx ON publish_records (status)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INT PRIMARY KEY,
		auto_post_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		post_types TEXT NOT NULL DEFAULT 'post',
		statuses TEXT NOT NULL DEFAULT 'publish',
		media_source VARCHAR(20) NOT NULL DEFAULT 'featured',
		description TEXT NOT NULL DEFAULT '{post_title}',
		post_mode VARCHAR(20) NOT NULL DEFAULT 'DIRECT_POST',
		privacy_level VARCHAR(40) NOT NULL DEFAULT 'PUBLIC_TO_EVERYONE',
		queue_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		cron_interval INT NOT NULL DEFAULT 15,
		enable_logging BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		content_type VARCHAR(40) NOT NULL DEFAULT 'post',
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		category TEXT NOT NULL DEFAULT '',
		featured_media_path TEXT NOT NULL DEFAULT '',
		custom_media_url TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS content_media (
		content_id BIGINT NOT NULL,
		file_path TEXT NOT NULL,
		display_order INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS content_media_content_idx ON content_media (content_id)`,
}

// RunMigrations creates the tables this service owns. Statements are
// idempotent so it is safe on every boot.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration %d: %w", i, err)
		}
	}
	return nil
}
