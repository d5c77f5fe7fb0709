package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
)

var allowedCronIntervals = map[int]bool{5: true, 15: true, 30: true, 60: true}

var privacyLevelPattern = regexp.MustCompile(`[^A-Z_]`)

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) error
	LoggingEnabled(ctx context.Context) bool
	// OnIntervalChange registers a callback invoked when the cron interval
	// changes, with the new interval in minutes.
	OnIntervalChange(fn func(minutes int))
}

type settingsService struct {
	sr               repository.SettingsRepository
	onIntervalChange func(int)
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{sr: sr}
}

// DefaultSettings mirrors the values a fresh installation runs with.
func DefaultSettings() *models.Settings {
	return &models.Settings{
		ID:              1,
		AutoPostEnabled: false,
		PostTypes:       "post",
		Statuses:        "publish",
		MediaSource:     models.MediaSourceFeatured,
		Description:     "{post_title}\n\n{excerpt}\n\n{post_url}",
		PostMode:        models.PostModeDirect,
		PrivacyLevel:    "PUBLIC_TO_EVERYONE",
		QueueEnabled:    true,
		CronInterval:    15,
		EnableLogging:   false,
	}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, ok, err := s.sr.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultSettings(), nil
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, in *models.Settings) error {
	previous, err := s.Get(ctx)
	if err != nil {
		return err
	}

	sanitized := Sanitize(in)
	if err := s.sr.Upsert(ctx, sanitized); err != nil {
		return err
	}

	if s.onIntervalChange != nil && previous.CronInterval != sanitized.CronInterval {
		s.onIntervalChange(sanitized.CronInterval)
	}
	return nil
}

func (s *settingsService) LoggingEnabled(ctx context.Context) bool {
	settings, err := s.Get(ctx)
	if err != nil {
		return false
	}
	return settings.EnableLogging
}

func (s *settingsService) OnIntervalChange(fn func(minutes int)) {
	s.onIntervalChange = fn
}

// Sanitize clamps free-form settings input to recognized values.
func Sanitize(in *models.Settings) *models.Settings {
	out := *in
	out.ID = 1

	switch out.MediaSource {
	case models.MediaSourceFeatured, models.MediaSourceCustomField, models.MediaSourceAttachment:
	default:
		out.MediaSource = models.MediaSourceFeatured
	}

	switch out.PostMode {
	case models.PostModeDirect, models.PostModeMediaUpload:
	default:
		out.PostMode = models.PostModeDirect
	}

	if !allowedCronIntervals[out.CronInterval] {
		out.CronInterval = 15
	}

	out.PrivacyLevel = privacyLevelPattern.ReplaceAllString(strings.ToUpper(out.PrivacyLevel), "")
	if out.PostTypes == "" {
		out.PostTypes = "post"
	}
	if out.Statuses == "" {
		out.Statuses = "publish"
	}
	if out.Description == "" {
		out.Description = "{post_title}"
	}

	return &out
}

// SplitList parses a comma-separated settings list.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
