package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
)

type fakeTokenRepo struct {
	encrypted string
	stored    bool
}

func (f *fakeTokenRepo) Get(ctx context.Context) (string, bool, error) {
	return f.encrypted, f.stored, nil
}

func (f *fakeTokenRepo) Set(ctx context.Context, encrypted string) error {
	f.encrypted = encrypted
	f.stored = true
	return nil
}

func (f *fakeTokenRepo) Clear(ctx context.Context) error {
	f.encrypted = ""
	f.stored = false
	return nil
}

func newTestTokenStore(now time.Time) (*tokenStore, *fakeTokenRepo) {
	repo := &fakeTokenRepo{}
	return &tokenStore{
		tr:     repo,
		secret: []byte("0123456789abcdef0123456789abcdef"),
		now:    func() time.Time { return now },
	}, repo
}

func TestTokenStore_SetGetRoundtrip(t *testing.T) {
	store, repo := newTestTokenStore(time.Now())
	ctx := context.Background()

	token := &models.Token{
		AccessToken:  "act.example",
		RefreshToken: "rft.example",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		OpenID:       "user-123",
		Scope:        "video.publish",
	}

	require.NoError(t, store.Set(ctx, token))
	require.NotContains(t, repo.encrypted, "act.example")

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, token, got)
}

func TestTokenStore_GetEmpty(t *testing.T) {
	store, _ := newTestTokenStore(time.Now())

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTokenStore_IsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ctx := context.Background()

	tests := []struct {
		name    string
		token   *models.Token
		expired bool
	}{
		{"no token stored", nil, true},
		{"no access token", &models.Token{ExpiresAt: now.Unix() + 100}, true},
		{"no expiry", &models.Token{AccessToken: "act"}, true},
		{"expired in the past", &models.Token{AccessToken: "act", ExpiresAt: now.Unix() - 1}, true},
		{"expiring right now", &models.Token{AccessToken: "act", ExpiresAt: now.Unix()}, true},
		{"still valid", &models.Token{AccessToken: "act", ExpiresAt: now.Unix() + 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestTokenStore(now)
			if tt.token != nil {
				require.NoError(t, store.Set(ctx, tt.token))
			}
			require.Equal(t, tt.expired, store.IsExpired(ctx))
		})
	}
}

func TestTokenStore_Clear(t *testing.T) {
	store, _ := newTestTokenStore(time.Now())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &models.Token{AccessToken: "act"}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}
