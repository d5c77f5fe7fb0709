package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/notAlamaD/tiktoc-autoposting/internal/hooks"
	job "github.com/notAlamaD/tiktoc-autoposting/internal/jobs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

type PostHandler struct {
	cr repository.ContentRepository
	cm repository.ContentMediaRepository
	pr repository.PublishRecordRepository
	pj *job.PublishJob
	ob *hooks.Observer
}

func NewPostHandler(cr repository.ContentRepository, cm repository.ContentMediaRepository, pr repository.PublishRecordRepository, pj *job.PublishJob, ob *hooks.Observer) *PostHandler {
	return &PostHandler{cr: cr, cm: cm, pr: pr, pj: pj, ob: ob}
}

type postListItem struct {
	Content *models.ContentItem    `json:"content"`
	Record  *models.PublishRecord  `json:"record"`
	Media   []*models.ContentMedia `json:"media,omitempty"`
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	items, err := h.cr.GetRecentPublished(c.Context(), limit)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch posts",
		})
	}

	list := make([]postListItem, 0, len(items))
	for _, item := range items {
		record, err := h.pr.GetByContent(c.Context(), item.ID)
		if err != nil {
			slog.Info(err.Error())
		}
		media, err := h.cm.ListByContentID(c.Context(), item.ID)
		if err != nil {
			slog.Info(err.Error())
		}
		list = append(list, postListItem{Content: item, Record: record, Media: media})
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

// PublishNow publishes a content item synchronously, outside the queue.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
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

	if err := h.pj.PublishSinglePost(c.Context(), body.ContentID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	record, err := h.pr.GetByContent(c.Context(), body.ContentID)
	if err != nil {
		slog.Info(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

// ContentTransition is the ingest point for content status changes from the
// content management side.
func (h *PostHandler) ContentTransition(c *fiber.Ctx) error {
	var body transfer.ContentTransitionRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	content, err := h.cr.GetByID(c.Context(), body.ContentID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load content",
		})
	}
	if content == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Content not found",
		})
	}

	h.ob.OnContentTransition(c.Context(), content, body.OldStatus, body.NewStatus)

	return c.SendStatus(fiber.StatusOK)
}
