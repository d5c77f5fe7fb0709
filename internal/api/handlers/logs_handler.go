package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/notAlamaD/tiktoc-autoposting/internal/apilog"
)

type LogsHandler struct {
	buf *apilog.Buffer
}

func NewLogsHandler(buf *apilog.Buffer) *LogsHandler {
	return &LogsHandler{buf: buf}
}

func (h *LogsHandler) ListLogs(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.buf.List())
}

func (h *LogsHandler) ClearLogs(c *fiber.Ctx) error {
	h.buf.Clear()
	return c.SendStatus(fiber.StatusOK)
}
