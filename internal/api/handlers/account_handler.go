package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/notAlamaD/tiktoc-autoposting/internal/service"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

type AccountHandler struct {
	tt     service.TiktokService
	tokens service.TokenStore
}

func NewAccountHandler(tt service.TiktokService, tokens service.TokenStore) *AccountHandler {
	return &AccountHandler{tt: tt, tokens: tokens}
}

type accountInfo struct {
	Connected bool                       `json:"connected"`
	User      *transfer.TiktokUser       `json:"user,omitempty"`
	Creator   *transfer.TiktokCreatorInfo `json:"creator,omitempty"`
}

// GetAccountInfo reports the connected TikTok account and its current
// publishing capability. A stored token that turns out to be unusable still
// reports connected, with the profile fields empty.
func (h *AccountHandler) GetAccountInfo(c *fiber.Ctx) error {
	token, err := h.tokens.Get(c.Context())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load account",
		})
	}
	if token == nil || token.IsZero() {
		return c.Status(fiber.StatusOK).JSON(accountInfo{Connected: false})
	}

	info := accountInfo{Connected: true}

	user, err := h.tt.GetUserInfo(c.Context())
	if errors.Is(err, service.ErrRetry) {
		user, err = h.tt.GetUserInfo(c.Context())
	}
	if err != nil {
		slog.Info(err.Error())
	} else {
		info.User = user
	}

	creator, err := h.tt.QueryCreatorInfo(c.Context())
	if errors.Is(err, service.ErrRetry) {
		creator, err = h.tt.QueryCreatorInfo(c.Context())
	}
	if err != nil {
		slog.Info(err.Error())
	} else {
		info.Creator = creator
	}

	return c.Status(fiber.StatusOK).JSON(info)
}
