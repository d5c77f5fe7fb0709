package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

type PublishRecordRepository interface {
	Ensure(ctx context.Context, contentID int64) (*models.PublishRecord, error)
	GetByID(ctx context.Context, id int64) (*models.PublishRecord, error)
	GetByContent(ctx context.Context, contentID int64) (*models.PublishRecord, error)
	GetRecent(ctx context.Context, limit int) ([]*models.PublishRecord, error)
	MarkPending(ctx context.Context, contentID int64) error
	MarkRetrying(ctx context.Context, contentID int64, message string, attempt int) error
	MarkProcessing(ctx context.Context, contentID int64, attempt int) error
	MarkPublished(ctx context.Context, contentID int64, tiktokPostID string, attempt int) error
	MarkError(ctx context.Context, contentID int64, message string, attempt int) error
}

type publishRecordRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPublishRecordRepository(db *sql.DB) PublishRecordRepository {
	return &publishRecordRepository{db: db, now: time.Now}
}

// Ensure returns the record for contentID, creating a pending one if none
// exists yet. The unique index on content_id makes concurrent calls safe.
func (r *publishRecordRepository) Ensure(ctx context.Context, contentID int64) (*models.PublishRecord, error) {
	record, err := r.GetByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	query := `
		INSERT INTO publish_records (content_id, status, attempts, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (content_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, contentID, models.RecordStatusPending, r.now()); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return r.GetByContent(ctx, contentID)
}

func (r *publishRecordRepository) GetByID(ctx context.Context, id int64) (*models.PublishRecord, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_records WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *publishRecordRepository) GetByContent(ctx context.Context, contentID int64) (*models.PublishRecord, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_records WHERE content_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, contentID))
}

func (r *publishRecordRepository) GetRecent(ctx context.Context, limit int) ([]*models.PublishRecord, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_records ORDER BY updated_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.PublishRecord
	for rows.Next() {
		var rec models.PublishRecord
		err := rows.Scan(&rec.ID, &rec.ContentID, &rec.Status, &rec.Attempts, &rec.LastError, &rec.TiktokPostID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *publishRecordRepository) MarkPending(ctx context.Context, contentID int64) error {
	if _, err := r.Ensure(ctx, contentID); err != nil {
		return err
	}

	query := `UPDATE publish_records SET status = $1, last_error = '', updated_at = $2 WHERE content_id = $3`
	_, err := r.db.ExecContext(ctx, query, models.RecordStatusPending, r.now(), contentID)
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

// MarkRetrying returns the record to pending after a failed attempt while
// keeping the failure visible in last_error.
func (r *publishRecordRepository) MarkRetrying(ctx context.Context, contentID int64, message string, attempt int) error {
	if _, err := r.Ensure(ctx, contentID); err != nil {
		return err
	}

	query := `UPDATE publish_records SET status = $1, attempts = $2, last_error = $3, updated_at = $4 WHERE content_id = $5`
	_, err := r.db.ExecContext(ctx, query, models.RecordStatusPending, attempt, message, r.now(), contentID)
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (r *publishRecordRepository) MarkProcessing(ctx context.Context, contentID int64, attempt int) error {
	if _, err := r.Ensure(ctx, contentID); err != nil {
		return err
	}

	query := `UPDATE publish_records SET status = $1, attempts = $2, updated_at = $3 WHERE content_id = $4`
	_, err := r.db.ExecContext(ctx, query, models.RecordStatusProcessing, attempt, r.now(), contentID)
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (r *publishRecordRepository) MarkPublished(ctx context.Context, contentID int64, tiktokPostID string, attempt int) error {
	if _, err := r.Ensure(ctx, contentID); err != nil {
		return err
	}

	query := `UPDATE publish_records SET status = $1, tiktok_post_id = $2, attempts = $3, last_error = '', updated_at = $4 WHERE content_id = $5`
	_, err := r.db.ExecContext(ctx, query, models.RecordStatusPublished, tiktokPostID, attempt, r.now(), contentID)
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (r *publishRecordRepository) MarkError(ctx context.Context, contentID int64, message string, attempt int) error {
	if _, err := r.Ensure(ctx, contentID); err != nil {
		return err
	}

	query := `UPDATE publish_records SET status = $1, attempts = $2, last_error = $3, updated_at = $4 WHERE content_id = $5`
	_, err := r.db.ExecContext(ctx, query, models.RecordStatusError, attempt, message, r.now(), contentID)
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (r *publishRecordRepository) scanOne(row *sql.Row) (*models.PublishRecord, error) {
	var rec models.PublishRecord
	err := row.Scan(&rec.ID, &rec.ContentID, &rec.Status, &rec.Attempts, &rec.LastError, &rec.TiktokPostID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &rec, nil
}
