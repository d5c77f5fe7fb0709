package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

type ContentMediaRepository interface {
	GetFirstByContentID(ctx context.Context, contentID int64) (*models.ContentMedia, error)
	ListByContentID(ctx context.Context, contentID int64) ([]*models.ContentMedia, error)
}

type contentMediaRepository struct {
	db *sql.DB
}

func NewContentMediaRepository(db *sql.DB) ContentMediaRepository {
	return &contentMediaRepository{db: db}
}

func (r *contentMediaRepository) GetFirstByContentID(ctx context.Context, contentID int64) (*models.ContentMedia, error) {
	query := `SELECT content_id, file_path, display_order, created_at FROM content_media WHERE content_id = $1 ORDER BY display_order ASC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, contentID)

	var media models.ContentMedia
	err := row.Scan(&media.ContentID, &media.FilePath, &media.DisplayOrder, &media.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &media, nil
}

func (r *contentMediaRepository) ListByContentID(ctx context.Context, contentID int64) ([]*models.ContentMedia, error) {
	query := `SELECT content_id, file_path, display_order, created_at FROM content_media WHERE content_id = $1 ORDER BY display_order ASC`

	rows, err := r.db.QueryContext(ctx, query, contentID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var medias []*models.ContentMedia
	for rows.Next() {
		var media models.ContentMedia
		err := rows.Scan(&media.ContentID, &media.FilePath, &media.DisplayOrder, &media.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		medias = append(medias, &media)
	}
	return medias, rows.Err()
}
