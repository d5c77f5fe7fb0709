package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/internal/service"
	"github.com/notAlamaD/tiktoc-autoposting/internal/telemetry"
)

const (
	// MaxAttempts is the fixed retry budget per job.
	MaxAttempts = 3

	// BatchSize bounds the remote-call fan-out of one drive cycle.
	BatchSize = 5
)

var (
	errContentMissing = errors.New("content_missing: content item not found")
	errMediaMissing   = errors.New("media_missing: no media reference for content item")
	errCreatorBlocked = errors.New("creator_blocked: account cannot publish right now")
	errPostIDMissing  = errors.New("publish response missing post id")
)

// PublishJob drains the publish queue: it is invoked by cron on the
// configured interval and directly by operator actions. Jobs are processed
// sequentially; the remote API is the bottleneck and sequential processing
// avoids rate-limit bursts.
type PublishJob struct {
	qr repository.QueueRepository
	pr repository.PublishRecordRepository
	cr repository.ContentRepository
	tt service.TiktokService
	ms service.MediaService
	ss service.SettingsService
}

func NewPublishJob(
	qr repository.QueueRepository,
	pr repository.PublishRecordRepository,
	cr repository.ContentRepository,
	tt service.TiktokService,
	ms service.MediaService,
	ss service.SettingsService) *PublishJob {
	return &PublishJob{
		qr: qr,
		pr: pr,
		cr: cr,
		tt: tt,
		ms: ms,
		ss: ss,
	}
}

// ProcessQueue runs one drive cycle: up to BatchSize pending jobs, oldest
// first.
func (j *PublishJob) ProcessQueue(ctx context.Context) {
	items, err := j.qr.GetPending(ctx, BatchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, item := range items {
		j.ProcessItem(ctx, item)
	}
}

// ProcessItemByID loads and processes a single queue row; used by the
// immediate-dispatch worker. Rows that are no longer pending are skipped.
func (j *PublishJob) ProcessItemByID(ctx context.Context, id int64) error {
	item, err := j.qr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %d not found", id)
	}
	if item.Status != models.QueueStatusPending {
		return nil
	}

	j.ProcessItem(ctx, item)
	return nil
}

// ProcessItem runs the full pipeline for one queue row, keeping the queue row
// and the content's publish record in step.
func (j *PublishJob) ProcessItem(ctx context.Context, item *models.QueueJob) {
	attempt := item.Attempts + 1

	j.updateQueue(ctx, item.ID, &models.QueueJobUpdate{
		Status:   ptr(models.QueueStatusProcessing),
		Attempts: &attempt,
	})
	if err := j.pr.MarkProcessing(ctx, item.ContentID, attempt); err != nil {
		slog.Info(err.Error())
	}

	postID, err, terminal := j.attemptPublish(ctx, item.ContentID)
	if err == nil {
		j.updateQueue(ctx, item.ID, &models.QueueJobUpdate{
			Status:       ptr(models.QueueStatusSuccess),
			Attempts:     &attempt,
			TiktokPostID: &postID,
			LastError:    ptr(""),
		})
		if err := j.pr.MarkPublished(ctx, item.ContentID, postID, attempt); err != nil {
			slog.Info(err.Error())
		}
		telemetry.PublishSuccess.Inc()
		return
	}

	j.handleError(ctx, item, attempt, err, terminal)
}

// PublishSinglePost runs the same pipeline for an operator-initiated
// immediate publish, bypassing the queue scan. Attempts are counted on the
// publish record independent of any queue row.
func (j *PublishJob) PublishSinglePost(ctx context.Context, contentID int64) error {
	record, err := j.pr.Ensure(ctx, contentID)
	if err != nil {
		return err
	}

	attempt := record.Attempts + 1
	if err := j.pr.MarkProcessing(ctx, contentID, attempt); err != nil {
		slog.Info(err.Error())
	}

	postID, err, terminal := j.attemptPublish(ctx, contentID)
	if err == nil {
		if err := j.pr.MarkPublished(ctx, contentID, postID, attempt); err != nil {
			slog.Info(err.Error())
		}
		telemetry.PublishSuccess.Inc()
		return nil
	}

	if terminal || attempt >= MaxAttempts {
		if markErr := j.pr.MarkError(ctx, contentID, err.Error(), attempt); markErr != nil {
			slog.Info(markErr.Error())
		}
		telemetry.PublishFailures.Inc()
	} else {
		if markErr := j.pr.MarkRetrying(ctx, contentID, err.Error(), attempt); markErr != nil {
			slog.Info(markErr.Error())
		}
		telemetry.PublishRetries.Inc()
	}

	return err
}

// attemptPublish performs one publish attempt for a content item. The
// terminal flag marks failures that retrying on the same grounds cannot fix.
func (j *PublishJob) attemptPublish(ctx context.Context, contentID int64) (postID string, err error, terminal bool) {
	settings, err := j.ss.Get(ctx)
	if err != nil {
		return "", err, false
	}

	content, err := j.cr.GetByID(ctx, contentID)
	if err != nil {
		return "", err, false
	}
	if content == nil {
		return "", errContentMissing, true
	}

	mediaPath, err := j.ms.Resolve(ctx, content, settings.MediaSource)
	if err != nil {
		return "", err, false
	}
	if mediaPath == "" {
		return "", errMediaMissing, true
	}

	creator, err := j.tt.QueryCreatorInfo(ctx)
	if errors.Is(err, service.ErrRetry) {
		creator, err = j.tt.QueryCreatorInfo(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("creator_info_missing: %w", err), false
	}
	if creator.CanPost != nil && !*creator.CanPost {
		return "", errCreatorBlocked, true
	}

	// Duration is enforced only when both the local duration and the remote
	// limit are known; unknown duration is not blocked.
	if j.ms.DetectMediaType(mediaPath) == service.MediaTypeVideo && creator.MaxVideoPostDurationSec > 0 {
		if seconds, ok := j.ms.Duration(mediaPath); ok && seconds > creator.MaxVideoPostDurationSec {
			return "", fmt.Errorf("video_too_long: %ds exceeds the account limit of %ds", seconds, creator.MaxVideoPostDurationSec), true
		}
	}

	description := j.ms.RenderDescription(content, settings.Description)

	result, err := j.tt.PublishContent(ctx, content, mediaPath, description, settings.PostMode, settings.PrivacyLevel)
	if errors.Is(err, service.ErrRetry) {
		result, err = j.tt.PublishContent(ctx, content, mediaPath, description, settings.PostMode, settings.PrivacyLevel)
	}
	if err != nil {
		return "", err, false
	}

	postID = result.PostID
	if postID == "" {
		postID = result.PublishID
	}
	if postID == "" {
		return "", errPostIDMissing, false
	}

	return postID, nil, false
}

// handleError applies the retry policy: back to pending while attempts
// remain, terminal error otherwise. last_error lands on both rows.
func (j *PublishJob) handleError(ctx context.Context, item *models.QueueJob, attempt int, cause error, terminal bool) {
	message := cause.Error()

	status := models.QueueStatusPending
	if terminal || attempt >= MaxAttempts {
		status = models.QueueStatusError
	}

	j.updateQueue(ctx, item.ID, &models.QueueJobUpdate{
		Status:    &status,
		Attempts:  &attempt,
		LastError: &message,
	})

	if status == models.QueueStatusError {
		if err := j.pr.MarkError(ctx, item.ContentID, message, attempt); err != nil {
			slog.Info(err.Error())
		}
		telemetry.PublishFailures.Inc()
	} else {
		if err := j.pr.MarkRetrying(ctx, item.ContentID, message, attempt); err != nil {
			slog.Info(err.Error())
		}
		telemetry.PublishRetries.Inc()
	}

	slog.Info("publish attempt failed", "queue_id", item.ID, "content_id", item.ContentID, "attempt", attempt, "status", status, "error", message)
}

func (j *PublishJob) updateQueue(ctx context.Context, id int64, u *models.QueueJobUpdate) {
	if err := j.qr.Update(ctx, id, u); err != nil {
		slog.Info(err.Error())
	}
}

func ptr[T any](v T) *T {
	return &v
}
