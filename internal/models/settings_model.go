package models

import "time"

// Settings is the single-row configuration controlling the publish pipeline.
// PostTypes and Statuses are stored comma-separated.
type Settings struct {
	ID              int64     `db:"id" json:"id"`
	AutoPostEnabled bool      `db:"auto_post_enabled" json:"auto_post_enabled"`
	PostTypes       string    `db:"post_types" json:"post_types"`
	Statuses        string    `db:"statuses" json:"statuses"`
	MediaSource     string    `db:"media_source" json:"media_source"`
	Description     string    `db:"description" json:"description"`
	PostMode        string    `db:"post_mode" json:"post_mode"`
	PrivacyLevel    string    `db:"privacy_level" json:"privacy_level"`
	QueueEnabled    bool      `db:"queue_enabled" json:"queue_enabled"`
	CronInterval    int       `db:"cron_interval" json:"cron_interval"`
	EnableLogging   bool      `db:"enable_logging" json:"enable_logging"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	MediaSourceFeatured    = "featured"
	MediaSourceCustomField = "custom_field"
	MediaSourceAttachment  = "attachment"

	PostModeDirect      = "DIRECT_POST"
	PostModeMediaUpload = "MEDIA_UPLOAD"
)
