package models

import "time"

// PublishRecord is the authoritative per-content publish state. Exactly zero
// or one record exists per content item (content_id is unique).
type PublishRecord struct {
	ID           int64     `db:"id" json:"id"`
	ContentID    int64     `db:"content_id" json:"content_id"`
	Status       string    `db:"status" json:"status"`
	Attempts     int       `db:"attempts" json:"attempts"`
	LastError    string    `db:"last_error" json:"last_error"`
	TiktokPostID string    `db:"tiktok_post_id" json:"tiktok_post_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RecordStatusPending    = "pending"
	RecordStatusProcessing = "processing"
	RecordStatusPublished  = "published"
	RecordStatusError      = "error"
)
