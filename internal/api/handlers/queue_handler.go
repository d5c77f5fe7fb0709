package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/notAlamaD/tiktoc-autoposting/internal/queue"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/internal/telemetry"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

type QueueHandler struct {
	qr     repository.QueueRepository
	pr     repository.PublishRecordRepository
	client *asynq.Client
}

func NewQueueHandler(qr repository.QueueRepository, pr repository.PublishRecordRepository, client *asynq.Client) *QueueHandler {
	return &QueueHandler{qr: qr, pr: pr, client: client}
}

func (h *QueueHandler) ListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	jobs, err := h.qr.GetRecent(c.Context(), limit)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch queue",
		})
	}

	return c.Status(fiber.StatusOK).JSON(jobs)
}

// Enqueue adds a publish job for a content item. With send_now the job is
// handed to the background dispatcher instead of waiting for the next cron
// cycle; the queue row is created either way.
func (h *QueueHandler) Enqueue(c *fiber.Ctx) error {
	var body transfer.EnqueueRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if body.ContentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content_id is required",
		})
	}

	if _, err := h.pr.Ensure(c.Context(), body.ContentID); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to enqueue",
		})
	}

	queueID, err := h.qr.Enqueue(c.Context(), body.ContentID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to enqueue",
		})
	}

	telemetry.JobsEnqueued.Inc()

	if body.SendNow && h.client != nil {
		err = queue.EnqueuePublishNow(h.client, queue.PublishNowPayload{QueueID: queueID})
		if err != nil {
			slog.Info(err.Error())
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": queueID,
	})
}

// Retry resets an errored content record to pending and queues a fresh job
// with its own attempt budget.
func (h *QueueHandler) Retry(c *fiber.Ctx) error {
	var body transfer.PublishNowRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if body.ContentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content_id is required",
		})
	}

	if err := h.pr.MarkPending(c.Context(), body.ContentID); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to retry",
		})
	}

	queueID, err := h.qr.Enqueue(c.Context(), body.ContentID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to retry",
		})
	}
	telemetry.JobsEnqueued.Inc()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": queueID,
	})
}

// ListRecords exposes the per-content publish history.
func (h *QueueHandler) ListRecords(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	records, err := h.pr.GetRecent(c.Context(), limit)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch records",
		})
	}

	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *QueueHandler) Remove(c *fiber.Ctx) error {
	id := c.QueryInt("id", 0)
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	if err := h.qr.Delete(c.Context(), int64(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove queue item",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
