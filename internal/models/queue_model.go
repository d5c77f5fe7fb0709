package models

import "time"

// QueueJob is a single publish job. Several jobs may reference the same
// content item over time (retries, manual resubmits); the queue is the work
// history, not the authoritative per-content state.
type QueueJob struct {
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
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusSuccess    = "success"
	QueueStatusError      = "error"
)

// QueueJobUpdate is a partial update; nil fields are left untouched.
// updated_at is always stamped by the repository.
type QueueJobUpdate struct {
	Status       *string
	Attempts     *int
	LastError    *string
	TiktokPostID *string
}
