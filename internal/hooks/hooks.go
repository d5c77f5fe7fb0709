package hooks

import (
	"context"
	"log/slog"

	job "github.com/notAlamaD/tiktoc-autoposting/internal/jobs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/internal/service"
	"github.com/notAlamaD/tiktoc-autoposting/internal/telemetry"
)

// Observer reacts to content status transitions coming from the content
// management side. Auto-posting fires only on the edge INTO a target status,
// so re-saving an already-published item never re-posts it.
type Observer struct {
	qr repository.QueueRepository
	pr repository.PublishRecordRepository
	ss service.SettingsService
	ms service.MediaService
	pj *job.PublishJob
}

func NewObserver(
	qr repository.QueueRepository,
	pr repository.PublishRecordRepository,
	ss service.SettingsService,
	ms service.MediaService,
	pj *job.PublishJob) *Observer {
	return &Observer{
		qr: qr,
		pr: pr,
		ss: ss,
		ms: ms,
		pj: pj,
	}
}

// OnContentTransition is called with the content's previous and new status.
// Depending on settings it either enqueues a publish job or publishes
// synchronously; in either case a queue row records the action.
func (o *Observer) OnContentTransition(ctx context.Context, content *models.ContentItem, oldStatus, newStatus string) {
	settings, err := o.ss.Get(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if !o.shouldPublish(ctx, content, settings, oldStatus, newStatus) {
		return
	}

	if _, err := o.pr.Ensure(ctx, content.ID); err != nil {
		slog.Info(err.Error())
		return
	}

	if settings.QueueEnabled {
		if _, err := o.qr.Enqueue(ctx, content.ID); err != nil {
			slog.Info(err.Error())
			return
		}
		telemetry.JobsEnqueued.Inc()
		slog.Info("content queued for publishing", "content_id", content.ID)
		return
	}

	o.publishNow(ctx, content.ID)
}

func (o *Observer) shouldPublish(ctx context.Context, content *models.ContentItem, settings *models.Settings, oldStatus, newStatus string) bool {
	if !settings.AutoPostEnabled {
		return false
	}
	if !contains(service.SplitList(settings.Statuses), newStatus) {
		return false
	}
	if oldStatus == newStatus {
		return false
	}
	if !contains(service.SplitList(settings.PostTypes), content.ContentType) {
		return false
	}

	media, err := o.ms.Resolve(ctx, content, settings.MediaSource)
	if err != nil {
		slog.Info(err.Error())
		return false
	}
	if media == "" {
		slog.Info("content has no usable media, skipping", "content_id", content.ID)
		return false
	}
	return true
}

// publishNow publishes synchronously and then records the outcome as a queue
// row, so immediate publishes show up in the same history as queued ones.
func (o *Observer) publishNow(ctx context.Context, contentID int64) {
	publishErr := o.pj.PublishSinglePost(ctx, contentID)

	queueID, err := o.qr.Enqueue(ctx, contentID)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	attempts := 1
	update := &models.QueueJobUpdate{Attempts: &attempts}
	if publishErr != nil {
		message := publishErr.Error()
		status := models.QueueStatusError
		update.Status = &status
		update.LastError = &message
	} else {
		status := models.QueueStatusSuccess
		update.Status = &status
		if record, err := o.pr.GetByContent(ctx, contentID); err == nil && record != nil {
			update.TiktokPostID = &record.TiktokPostID
		}
	}
	if err := o.qr.Update(ctx, queueID, update); err != nil {
		slog.Info(err.Error())
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
