package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

// ContentRepository is the read-only view onto the content management side.
type ContentRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ContentItem, error)
	GetRecentPublished(ctx context.Context, limit int) ([]*models.ContentItem, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, title, excerpt, url, content_type, status, category, featured_media_path, custom_media_url, published_at, created_at`

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var item models.ContentItem
	err := row.Scan(&item.ID, &item.Title, &item.Excerpt, &item.URL, &item.ContentType, &item.Status, &item.Category, &item.FeaturedMediaPath, &item.CustomMediaURL, &item.PublishedAt, &item.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &item, nil
}

func (r *contentRepository) GetRecentPublished(ctx context.Context, limit int) ([]*models.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE status = 'publish' ORDER BY published_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.ContentItem
	for rows.Next() {
		var item models.ContentItem
		err := rows.Scan(&item.ID, &item.Title, &item.Excerpt, &item.URL, &item.ContentType, &item.Status, &item.Category, &item.FeaturedMediaPath, &item.CustomMediaURL, &item.PublishedAt, &item.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
