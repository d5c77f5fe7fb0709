package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, bool, error)
	Upsert(ctx context.Context, s *models.Settings) error
}

type settingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db, now: time.Now}
}

// Get returns the single settings row; the boolean reports whether one exists.
func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, bool, error) {
	query := `SELECT id, auto_post_enabled, post_types, statuses, media_source, description, post_mode, privacy_level, queue_enabled, cron_interval, enable_logging, created_at, updated_at FROM settings WHERE id = 1`
	row := r.db.QueryRowContext(ctx, query)

	var s models.Settings
	err := row.Scan(&s.ID, &s.AutoPostEnabled, &s.PostTypes, &s.Statuses, &s.MediaSource, &s.Description, &s.PostMode, &s.PrivacyLevel, &s.QueueEnabled, &s.CronInterval, &s.EnableLogging, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &s, true, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	query := `
		INSERT INTO settings (id, auto_post_enabled, post_types, statuses, media_source, description, post_mode, privacy_level, queue_enabled, cron_interval, enable_logging, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (id) DO UPDATE SET
			auto_post_enabled = EXCLUDED.auto_post_enabled,
			post_types = EXCLUDED.post_types,
			statuses = EXCLUDED.statuses,
			media_source = EXCLUDED.media_source,
			description = EXCLUDED.description,
			post_mode = EXCLUDED.post_mode,
			privacy_level = EXCLUDED.privacy_level,
			queue_enabled = EXCLUDED.queue_enabled,
			cron_interval = EXCLUDED.cron_interval,
			enable_logging = EXCLUDED.enable_logging,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, s.AutoPostEnabled, s.PostTypes, s.Statuses, s.MediaSource, s.Description, s.PostMode, s.PrivacyLevel, s.QueueEnabled, s.CronInterval, s.EnableLogging, r.now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
