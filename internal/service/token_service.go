package service

import (
	"context"
	"encoding/json"
	"time"

	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/pkg/utils"
)

// TokenStore holds the single TikTok OAuth credential set. Tokens are
// AES-GCM encrypted before hitting the repository. Writers are the API
// client (refresh) and the OAuth callback only.
type TokenStore interface {
	Get(ctx context.Context) (*models.Token, error)
	Set(ctx context.Context, token *models.Token) error
	Clear(ctx context.Context) error
	IsExpired(ctx context.Context) bool
}

type tokenStore struct {
	tr     repository.TokenRepository
	secret []byte
	now    func() time.Time
}

func NewTokenStore(cfg config.Config, tr repository.TokenRepository) TokenStore {
	return &tokenStore{
		tr:     tr,
		secret: []byte(cfg.SecretKey),
		now:    time.Now,
	}
}

// Get returns the stored token, or nil when none is stored.
func (s *tokenStore) Get(ctx context.Context) (*models.Token, error) {
	encrypted, ok, err := s.tr.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok || encrypted == "" {
		return nil, nil
	}

	plain, err := utils.Decrypt(encrypted, s.secret)
	if err != nil {
		return nil, err
	}

	var token models.Token
	if err := json.Unmarshal([]byte(plain), &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (s *tokenStore) Set(ctx context.Context, token *models.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}

	encrypted, err := utils.Encrypt(raw, s.secret)
	if err != nil {
		return err
	}

	return s.tr.Set(ctx, encrypted)
}

func (s *tokenStore) Clear(ctx context.Context) error {
	return s.tr.Clear(ctx)
}

// IsExpired reports whether the stored access token is unusable: absent,
// without an expiry, or at/past its expiry. The boundary is inclusive.
func (s *tokenStore) IsExpired(ctx context.Context) bool {
	token, err := s.Get(ctx)
	if err != nil || token == nil {
		return true
	}

	return token.AccessToken == "" || token.ExpiresAt == 0 || token.ExpiresAt <= s.now().Unix()
}
