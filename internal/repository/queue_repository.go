package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

type QueueRepository interface {
	Enqueue(ctx context.Context, contentID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.QueueJob, error)
	GetPending(ctx context.Context, limit int) ([]*models.QueueJob, error)
	GetRecent(ctx context.Context, limit int) ([]*models.QueueJob, error)
	Update(ctx context.Context, id int64, u *models.QueueJobUpdate) error
	Delete(ctx context.Context, id int64) error
}

type queueRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewQueueRepository(db *sql.DB) QueueRepository {
	return &queueRepository{db: db, now: time.Now}
}

func (r *queueRepository) Enqueue(ctx context.Context, contentID int64) (int64, error) {
	query := `
		INSERT INTO publish_queue (content_id, status, attempts, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, contentID, models.QueueStatusPending, r.now()).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *queueRepository) GetByID(ctx context.Context, id int64) (*models.QueueJob, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_queue WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var job models.QueueJob
	err := row.Scan(&job.ID, &job.ContentID, &job.Status, &job.Attempts, &job.LastError, &job.TiktokPostID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &job, nil
}

func (r *queueRepository) GetPending(ctx context.Context, limit int) ([]*models.QueueJob, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_queue WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, models.QueueStatusPending, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanQueueJobs(rows)
}

func (r *queueRepository) GetRecent(ctx context.Context, limit int) ([]*models.QueueJob, error) {
	query := `SELECT id, content_id, status, attempts, last_error, tiktok_post_id, created_at, updated_at FROM publish_queue ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanQueueJobs(rows)
}

func (r *queueRepository) Update(ctx context.Context, id int64, u *models.QueueJobUpdate) error {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.Attempts != nil {
		add("attempts", *u.Attempts)
	}
	if u.LastError != nil {
		add("last_error", *u.LastError)
	}
	if u.TiktokPostID != nil {
		add("tiktok_post_id", *u.TiktokPostID)
	}
	add("updated_at", r.now())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE publish_queue SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *queueRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM publish_queue WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanQueueJobs(rows *sql.Rows) ([]*models.QueueJob, error) {
	var jobs []*models.QueueJob
	for rows.Next() {
		var job models.QueueJob
		err := rows.Scan(&job.ID, &job.ContentID, &job.Status, &job.Attempts, &job.LastError, &job.TiktokPostID, &job.CreatedAt, &job.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}
