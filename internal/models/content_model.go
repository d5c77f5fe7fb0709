package models

import "time"

// ContentItem is the unit of content eligible for cross-posting. The content
// management side owns these rows; this service only reads them.
type ContentItem struct {
	ID                int64     `db:"id" json:"id"`
	Title             string    `db:"title" json:"title"`
	Excerpt           string    `db:"excerpt" json:"excerpt"`
	URL               string    `db:"url" json:"url"`
	ContentType       string    `db:"content_type" json:"content_type"`
	Status            string    `db:"status" json:"status"`
	Category          string    `db:"category" json:"category"`
	FeaturedMediaPath string    `db:"featured_media_path" json:"featured_media_path"`
	CustomMediaURL    string    `db:"custom_media_url" json:"custom_media_url"`
	PublishedAt       time.Time `db:"published_at" json:"published_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ContentMedia is an attachment associated with a content item, ordered by
// display_order. Used when the media source setting is "attachment".
type ContentMedia struct {
	ContentID    int64     `db:"content_id" json:"content_id"`
	FilePath     string    `db:"file_path" json:"file_path"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
