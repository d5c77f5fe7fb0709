package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/apilog"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

type memoryTokenStore struct {
	token *models.Token
}

func (m *memoryTokenStore) Get(ctx context.Context) (*models.Token, error) {
	return m.token, nil
}

func (m *memoryTokenStore) Set(ctx context.Context, token *models.Token) error {
	m.token = token
	return nil
}

func (m *memoryTokenStore) Clear(ctx context.Context) error {
	m.token = nil
	return nil
}

func (m *memoryTokenStore) IsExpired(ctx context.Context) bool {
	return m.token == nil
}

// mediaStub short-circuits URL resolution so API client tests do not touch
// the filesystem.
type mediaStub struct {
	url       string
	mediaType string
}

func (m *mediaStub) Resolve(ctx context.Context, content *models.ContentItem, source string) (string, error) {
	return m.url, nil
}

func (m *mediaStub) RenderDescription(content *models.ContentItem, template string) string {
	return template
}

func (m *mediaStub) PublicMediaURL(pathOrURL string) string { return m.url }

func (m *mediaStub) EnsurePublicURL(ctx context.Context, pathOrURL string) (string, error) {
	return m.url, nil
}

func (m *mediaStub) DetectMediaType(pathOrURL string) string { return m.mediaType }

func (m *mediaStub) Duration(path string) (int, bool) { return 0, false }

func newTestTiktokService(serverURL string, tokens TokenStore, media MediaService, logs *apilog.Buffer) *tiktokService {
	cfg := config.Config{
		TiktokClientKey:    "test-client-key",
		TiktokClientSecret: "test-client-secret",
		TiktokRedirectURI:  "https://example.com/auth/tiktok/callback",
		TiktokAPIBaseURL:   serverURL + "/",
		TiktokAuthorizeURL: "https://www.tiktok.com/v2/auth/authorize/",
	}
	return &tiktokService{
		cfg:        cfg,
		tokens:     tokens,
		media:      media,
		logs:       logs,
		logEnabled: func(ctx context.Context) bool { return true },
		client:     &http.Client{},
		now:        func() time.Time { return time.Unix(1_700_000_000, 0) },
	}
}

func validToken() *models.Token {
	return &models.Token{
		AccessToken:  "act.current",
		RefreshToken: "rft.current",
		ExpiresAt:    1_700_003_600,
		OpenID:       "user-123",
		Scope:        "video.publish",
	}
}

func TestAuthorizeURL(t *testing.T) {
	svc := newTestTiktokService("http://unused", &memoryTokenStore{}, &mediaStub{}, nil)

	raw := svc.AuthorizeURL("state-token")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	require.Equal(t, "test-client-key", q.Get("client_key"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "https://example.com/auth/tiktok/callback", q.Get("redirect_uri"))
	require.Equal(t, "state-token", q.Get("state"))
	require.Contains(t, q.Get("scope"), "video.publish")
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.FormValue("grant_type"))
		require.Equal(t, "auth-code", r.FormValue("code"))
		require.Equal(t, "test-client-key", r.FormValue("client_key"))

		json.NewEncoder(w).Encode(transfer.TiktokTokenResponse{
			AccessToken:  "act.new",
			RefreshToken: "rft.new",
			ExpiresIn:    86400,
			OpenID:       "user-123",
			Scope:        "video.publish",
		})
	}))
	defer server.Close()

	store := &memoryTokenStore{}
	svc := newTestTiktokService(server.URL, store, &mediaStub{}, nil)

	token, err := svc.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Equal(t, "act.new", token.AccessToken)
	require.Equal(t, int64(1_700_000_000+86400), token.ExpiresAt)
	require.Equal(t, token, store.token)
}

func TestExchangeCode_EmptyCode(t *testing.T) {
	svc := newTestTiktokService("http://unused", &memoryTokenStore{}, &mediaStub{}, nil)

	_, err := svc.ExchangeCode(context.Background(), "")
	require.Error(t, err)
}

func TestRefreshToken_PreservesIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.FormValue("grant_type"))
		require.Equal(t, "rft.current", r.FormValue("refresh_token"))

		// Response omits refresh_token and open_id; the stored values must
		// survive.
		json.NewEncoder(w).Encode(transfer.TiktokTokenResponse{
			AccessToken: "act.refreshed",
			ExpiresIn:   86400,
		})
	}))
	defer server.Close()

	store := &memoryTokenStore{token: validToken()}
	svc := newTestTiktokService(server.URL, store, &mediaStub{}, nil)

	token, err := svc.RefreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "act.refreshed", token.AccessToken)
	require.Equal(t, "rft.current", token.RefreshToken)
	require.Equal(t, "user-123", token.OpenID)
	require.Equal(t, int64(1_700_000_000+86400), token.ExpiresAt)
	require.Equal(t, token, store.token)
}

func TestRefreshToken_NoRefreshToken(t *testing.T) {
	svc := newTestTiktokService("http://unused", &memoryTokenStore{}, &mediaStub{}, nil)

	_, err := svc.RefreshToken(context.Background())
	require.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestRefreshToken_MissingCredentials(t *testing.T) {
	svc := newTestTiktokService("http://unused", &memoryTokenStore{token: validToken()}, &mediaStub{}, nil)
	svc.cfg.TiktokClientSecret = ""

	_, err := svc.RefreshToken(context.Background())
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestQueryCreatorInfo_ExpiredTokenTriggersRetrySignal(t *testing.T) {
	var refreshCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/post/publish/creator_info/query/":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"access_token_invalid","message":"The access token is expired"}}`))
		case "/oauth/token/":
			refreshCalls++
			json.NewEncoder(w).Encode(transfer.TiktokTokenResponse{
				AccessToken: "act.refreshed",
				ExpiresIn:   86400,
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	store := &memoryTokenStore{token: validToken()}
	svc := newTestTiktokService(server.URL, store, &mediaStub{}, nil)

	_, err := svc.QueryCreatorInfo(context.Background())
	require.ErrorIs(t, err, ErrRetry)
	require.Equal(t, 1, refreshCalls)
	require.Equal(t, "act.refreshed", store.token.AccessToken)
}

func TestQueryCreatorInfo_FailedRefreshSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/post/publish/creator_info/query/":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"access_token_invalid","message":"The access token is expired"}}`))
		case "/oauth/token/":
			// A failed refresh must not trigger another refresh.
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"invalid_grant","message":"The refresh token is expired"}}`))
		}
	}))
	defer server.Close()

	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, &mediaStub{}, nil)

	_, err := svc.QueryCreatorInfo(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrRetry)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Message, "refresh token is expired")
}

func TestQueryCreatorInfo_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"spam_risk_too_many_posts","message":"Daily post cap reached"}}`))
	}))
	defer server.Close()

	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, &mediaStub{}, nil)

	_, err := svc.QueryCreatorInfo(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "tiktok_api_error", apiErr.Code)
	require.Equal(t, "Daily post cap reached", apiErr.Message)
}

func TestPublishContent_Video(t *testing.T) {
	var captured transfer.PublishRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/post/publish/video/init/", r.URL.Path)
		require.Equal(t, "Bearer act.current", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(transfer.TiktokPublishResponse{
			Data: transfer.TiktokPublishData{PublishID: "v_pub_12345"},
		})
	}))
	defer server.Close()

	media := &mediaStub{url: "http://cdn.example.com/clip.mp4", mediaType: MediaTypeVideo}
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, media, nil)

	content := &models.ContentItem{Title: "My Clip"}
	result, err := svc.PublishContent(context.Background(), content, "/media/clip.mp4", "A description", models.PostModeDirect, "PUBLIC_TO_EVERYONE")
	require.NoError(t, err)
	require.Equal(t, "v_pub_12345", result.PublishID)

	require.Equal(t, "PULL_FROM_URL", captured.SourceInfo.Source)
	require.Equal(t, "https://cdn.example.com/clip.mp4", captured.SourceInfo.VideoURL)
	require.Empty(t, captured.SourceInfo.PhotoImages)
	require.Equal(t, models.PostModeDirect, captured.PostMode)
	require.Equal(t, MediaTypeVideo, captured.MediaType)
	require.Equal(t, "My Clip", captured.PostInfo.Title)
	require.Equal(t, "A description", captured.PostInfo.Description)
	require.Equal(t, "PUBLIC_TO_EVERYONE", captured.PostInfo.PrivacyLevel)
}

func TestPublishContent_Photo(t *testing.T) {
	var captured transfer.PublishRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/post/publish/content/init/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(transfer.TiktokPublishResponse{
			Data: transfer.TiktokPublishData{PostID: "p_123"},
		})
	}))
	defer server.Close()

	media := &mediaStub{url: "https://cdn.example.com/cover.jpg", mediaType: MediaTypePhoto}
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, media, nil)

	result, err := svc.PublishContent(context.Background(), &models.ContentItem{Title: "Photo"}, "/media/cover.jpg", "", models.PostModeDirect, "SELF_ONLY")
	require.NoError(t, err)
	require.Equal(t, "p_123", result.PostID)

	require.Equal(t, []string{"https://cdn.example.com/cover.jpg"}, captured.SourceInfo.PhotoImages)
	require.NotNil(t, captured.SourceInfo.PhotoCoverIndex)
	require.Equal(t, 0, *captured.SourceInfo.PhotoCoverIndex)
	require.Empty(t, captured.SourceInfo.VideoURL)
	require.Equal(t, "SELF_ONLY", captured.PostInfo.PrivacyLevel)
}

func TestPublishContent_NoPrivacyOutsideDirectPost(t *testing.T) {
	var captured transfer.PublishRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(transfer.TiktokPublishResponse{
			Data: transfer.TiktokPublishData{PublishID: "v_pub_1"},
		})
	}))
	defer server.Close()

	media := &mediaStub{url: "https://cdn.example.com/clip.mp4", mediaType: MediaTypeVideo}
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, media, nil)

	_, err := svc.PublishContent(context.Background(), &models.ContentItem{}, "/media/clip.mp4", "", models.PostModeMediaUpload, "PUBLIC_TO_EVERYONE")
	require.NoError(t, err)
	require.Empty(t, captured.PostInfo.PrivacyLevel)
	require.Equal(t, models.PostModeMediaUpload, captured.PostMode)
}

func TestPublishContent_TruncatesTitle(t *testing.T) {
	var captured transfer.PublishRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(transfer.TiktokPublishResponse{
			Data: transfer.TiktokPublishData{PublishID: "v_pub_1"},
		})
	}))
	defer server.Close()

	media := &mediaStub{url: "https://cdn.example.com/clip.mp4", mediaType: MediaTypeVideo}
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, media, nil)

	long := strings.Repeat("t", 120)
	_, err := svc.PublishContent(context.Background(), &models.ContentItem{Title: long}, "/media/clip.mp4", "", models.PostModeDirect, "")
	require.NoError(t, err)
	require.Len(t, captured.PostInfo.Title, 80)
}

func TestPublishContent_NoPublicURL(t *testing.T) {
	svc := newTestTiktokService("http://unused", &memoryTokenStore{token: validToken()}, &mediaStub{}, nil)

	_, err := svc.PublishContent(context.Background(), &models.ContentItem{}, "/private/clip.mp4", "", models.PostModeDirect, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "media_url_missing", apiErr.Code)
}

func TestPublishContent_TransportErrorVerbatim(t *testing.T) {
	media := &mediaStub{url: "https://cdn.example.com/clip.mp4", mediaType: MediaTypeVideo}
	svc := newTestTiktokService("http://127.0.0.1:1", &memoryTokenStore{token: validToken()}, media, nil)

	_, err := svc.PublishContent(context.Background(), &models.ContentItem{}, "/media/clip.mp4", "", models.PostModeDirect, "")
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestCallLogging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transfer.TiktokCreatorInfoResponse{})
	}))
	defer server.Close()

	logs := apilog.NewBuffer()
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, &mediaStub{}, logs)

	_, err := svc.QueryCreatorInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	entry := logs.List()[0]
	require.Equal(t, http.MethodPost, entry.Method)
	require.Equal(t, http.StatusOK, entry.ResponseCode)
	require.Contains(t, entry.Endpoint, "/post/publish/creator_info/query/")
}

func TestCallLogging_Disabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transfer.TiktokCreatorInfoResponse{})
	}))
	defer server.Close()

	logs := apilog.NewBuffer()
	svc := newTestTiktokService(server.URL, &memoryTokenStore{token: validToken()}, &mediaStub{}, logs)
	svc.logEnabled = func(ctx context.Context) bool { return false }

	_, err := svc.QueryCreatorInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, logs.Len())
}
