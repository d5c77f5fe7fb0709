package handlers

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/service"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
	"github.com/notAlamaD/tiktoc-autoposting/pkg/utils"
)

type AuthHandler struct {
	tt     service.TiktokService
	tokens service.TokenStore
	cfg    config.Config
}

func NewAuthHandler(cfg config.Config, tt service.TiktokService, tokens service.TokenStore) *AuthHandler {
	return &AuthHandler{tt: tt, tokens: tokens, cfg: cfg}
}

// Login is the single-operator session: the admin password grants a JWT
// cookie. There are no user accounts.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body transfer.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(h.cfg.AdminPassword)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "admin", 24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   false,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
	})

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}

// ConnectTiktok redirects to the TikTok authorize page. The state parameter
// is a short-lived JWT so the callback can reject forged requests.
func (h *AuthHandler) ConnectTiktok(c *fiber.Ctx) error {
	state, err := utils.GenerateToken(h.cfg.SecretKey, "oauth", 10*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	return c.Redirect(h.tt.AuthorizeURL(state))
}

func (h *AuthHandler) TiktokCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if _, err := utils.ValidateToken(h.cfg.SecretKey, state); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate request",
		})
	}

	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing authorization code",
		})
	}

	token, err := h.tt.ExchangeCode(c.Context(), code)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	if err := h.tokens.Set(c.Context(), token); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/account", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) DisconnectTiktok(c *fiber.Ctx) error {
	if err := h.tokens.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect account",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}
