package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/apilog"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/telemetry"
	"github.com/notAlamaD/tiktoc-autoposting/internal/transfer"
)

const tiktokScopes = "user.info.basic,video.publish,video.upload"

const (
	readTimeout    = 20 * time.Second
	tokenTimeout   = 30 * time.Second
	publishTimeout = 45 * time.Second
)

const maxTitleLen = 80

type TiktokService interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.Token, error)
	RefreshToken(ctx context.Context) (*models.Token, error)
	GetUserInfo(ctx context.Context) (*transfer.TiktokUser, error)
	QueryCreatorInfo(ctx context.Context) (*transfer.TiktokCreatorInfo, error)
	PublishContent(ctx context.Context, content *models.ContentItem, mediaPath, description, postMode, privacyLevel string) (*transfer.TiktokPublishData, error)

	// Legacy two-step flow, kept for installations still configured for it.
	UploadMedia(ctx context.Context, mediaPath, mediaType string) (string, error)
	CreatePost(ctx context.Context, mediaID, description string) (*transfer.TiktokPublishData, error)
}

type tiktokService struct {
	cfg        config.Config
	tokens     TokenStore
	media      MediaService
	logs       *apilog.Buffer
	logEnabled func(ctx context.Context) bool
	client     *http.Client
	now        func() time.Time
}

func NewTiktokService(cfg config.Config, tokens TokenStore, media MediaService, logs *apilog.Buffer, logEnabled func(ctx context.Context) bool) TiktokService {
	return &tiktokService{
		cfg:        cfg,
		tokens:     tokens,
		media:      media,
		logs:       logs,
		logEnabled: logEnabled,
		client:     &http.Client{},
		now:        time.Now,
	}
}

func (s *tiktokService) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_key", s.cfg.TiktokClientKey)
	params.Set("scope", tiktokScopes)
	params.Set("response_type", "code")
	params.Set("redirect_uri", s.cfg.TiktokRedirectURI)
	params.Set("state", state)

	return s.cfg.TiktokAuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a fresh token set and
// persists it.
func (s *tiktokService) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}
	if s.cfg.TiktokClientKey == "" || s.cfg.TiktokClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	data := url.Values{}
	data.Set("client_key", s.cfg.TiktokClientKey)
	data.Set("client_secret", s.cfg.TiktokClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.cfg.TiktokRedirectURI)

	tokenResponse, err := s.tokenCall(ctx, data)
	if err != nil {
		return nil, err
	}

	token := &models.Token{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    s.now().Unix() + int64(tokenResponse.ExpiresIn),
		OpenID:       tokenResponse.OpenID,
		Scope:        tokenResponse.Scope,
	}

	if err := s.tokens.Set(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// RefreshToken renews the access token in place. Identity fields survive
// unless the remote supplies new values; the old refresh token is kept when
// the response omits one.
func (s *tiktokService) RefreshToken(ctx context.Context) (*models.Token, error) {
	if s.cfg.TiktokClientKey == "" || s.cfg.TiktokClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	token, err := s.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil || token.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	data := url.Values{}
	data.Set("client_key", s.cfg.TiktokClientKey)
	data.Set("client_secret", s.cfg.TiktokClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", token.RefreshToken)

	tokenResponse, err := s.tokenCall(ctx, data)
	if err != nil {
		return nil, err
	}

	token.AccessToken = tokenResponse.AccessToken
	token.ExpiresAt = s.now().Unix() + int64(tokenResponse.ExpiresIn)
	if tokenResponse.RefreshToken != "" {
		token.RefreshToken = tokenResponse.RefreshToken
	}
	if tokenResponse.OpenID != "" {
		token.OpenID = tokenResponse.OpenID
	}
	if tokenResponse.Scope != "" {
		token.Scope = tokenResponse.Scope
	}

	if err := s.tokens.Set(ctx, token); err != nil {
		return nil, err
	}

	telemetry.TokenRefreshes.Inc()
	return token, nil
}

func (s *tiktokService) tokenCall(ctx context.Context, data url.Values) (*transfer.TiktokTokenResponse, error) {
	endpoint := s.cfg.TiktokAPIBaseURL + "oauth/token/"

	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := s.send(ctx, req, "grant_type="+data.Get("grant_type"))
	if err != nil {
		return nil, err
	}
	// Refresh failures must never recurse into another refresh.
	if err := s.classify(ctx, status, body, false); err != nil {
		return nil, err
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, &APIError{Code: "tiktok_api_error", Message: "token response missing access_token", Body: string(body)}
	}

	return &tokenResponse, nil
}

func (s *tiktokService) GetUserInfo(ctx context.Context) (*transfer.TiktokUser, error) {
	endpoint := s.cfg.TiktokAPIBaseURL + "user/info/?fields=open_id,display_name,avatar_url,bio_description"

	body, err := s.call(ctx, http.MethodGet, endpoint, nil, readTimeout)
	if err != nil {
		return nil, err
	}

	var result transfer.TiktokUserResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result.Data.User, nil
}

func (s *tiktokService) QueryCreatorInfo(ctx context.Context) (*transfer.TiktokCreatorInfo, error) {
	endpoint := s.cfg.TiktokAPIBaseURL + "post/publish/creator_info/query/"

	body, err := s.call(ctx, http.MethodPost, endpoint, nil, readTimeout)
	if err != nil {
		return nil, err
	}

	var result transfer.TiktokCreatorInfoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result.Data, nil
}

// PublishContent submits a pull-from-URL post. The remote fetches the media
// asynchronously after accepting the request, hence the generous timeout.
func (s *tiktokService) PublishContent(ctx context.Context, content *models.ContentItem, mediaPath, description, postMode, privacyLevel string) (*transfer.TiktokPublishData, error) {
	fileURL, err := s.media.EnsurePublicURL(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	if fileURL == "" {
		return nil, NewAPIError("media_url_missing", "could not resolve a public media URL for TikTok")
	}
	fileURL = forceHTTPS(fileURL)

	if postMode != models.PostModeDirect && postMode != models.PostModeMediaUpload {
		postMode = models.PostModeDirect
	}

	mediaType := s.media.DetectMediaType(mediaPath)

	request := transfer.PublishRequest{
		PostInfo: transfer.PostInfo{
			Title:       truncateTitle(content.Title, maxTitleLen),
			Description: description,
		},
		PostMode:  postMode,
		MediaType: mediaType,
	}

	var endpoint string
	if mediaType == MediaTypePhoto {
		coverIndex := 0
		request.SourceInfo = transfer.SourceInfo{
			Source:          "PULL_FROM_URL",
			PhotoImages:     []string{fileURL},
			PhotoCoverIndex: &coverIndex,
		}
		endpoint = s.cfg.TiktokAPIBaseURL + "post/publish/content/init/"
	} else {
		request.SourceInfo = transfer.SourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: fileURL,
		}
		endpoint = s.cfg.TiktokAPIBaseURL + "post/publish/video/init/"
	}

	if postMode == models.PostModeDirect {
		if privacy := privacyLevelPattern.ReplaceAllString(strings.ToUpper(privacyLevel), ""); privacy != "" {
			request.PostInfo.PrivacyLevel = privacy
		}
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	body, err := s.call(ctx, http.MethodPost, endpoint, payload, publishTimeout)
	if err != nil {
		return nil, err
	}

	var result transfer.TiktokPublishResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result.Data, nil
}

func (s *tiktokService) UploadMedia(ctx context.Context, mediaPath, mediaType string) (string, error) {
	fileURL, err := s.media.EnsurePublicURL(ctx, mediaPath)
	if err != nil {
		return "", err
	}
	if fileURL == "" {
		return "", NewAPIError("media_url_missing", "could not resolve a public media URL for TikTok")
	}

	payload, err := json.Marshal(map[string]string{
		"source":     "PULL_FROM_URL",
		"media_url":  forceHTTPS(fileURL),
		"media_type": mediaType,
	})
	if err != nil {
		return "", err
	}

	endpoint := s.cfg.TiktokAPIBaseURL + "media/upload/"
	body, err := s.call(ctx, http.MethodPost, endpoint, payload, publishTimeout)
	if err != nil {
		return "", err
	}

	var result transfer.TiktokUploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return result.Data.MediaID, nil
}

func (s *tiktokService) CreatePost(ctx context.Context, mediaID, description string) (*transfer.TiktokPublishData, error) {
	payload, err := json.Marshal(map[string]string{
		"media_id":    mediaID,
		"description": description,
	})
	if err != nil {
		return nil, err
	}

	endpoint := s.cfg.TiktokAPIBaseURL + "post/publish/"
	body, err := s.call(ctx, http.MethodPost, endpoint, payload, publishTimeout)
	if err != nil {
		return nil, err
	}

	var result transfer.TiktokPublishResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result.Data, nil
}

// call issues an authenticated JSON request and runs the full response
// classification, including the refresh-then-retry-signal protocol.
func (s *tiktokService) call(ctx context.Context, method, endpoint string, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	if token, err := s.tokens.Get(ctx); err == nil && token != nil && token.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	status, body, err := s.send(ctx, req, string(payload))
	if err != nil {
		return nil, err
	}
	if err := s.classify(ctx, status, body, true); err != nil {
		return nil, err
	}

	return body, nil
}

// send performs the HTTP exchange and records the attempt in the API log.
// Transport failures surface verbatim.
func (s *tiktokService) send(ctx context.Context, req *http.Request, logRequest string) (int, []byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		s.log(ctx, req, logRequest, 0, err.Error())
		slog.Info(err.Error())
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.log(ctx, req, logRequest, resp.StatusCode, err.Error())
		slog.Info(err.Error())
		return 0, nil, err
	}

	s.log(ctx, req, logRequest, resp.StatusCode, string(body))
	return resp.StatusCode, body, nil
}

// classify maps an HTTP outcome onto the error taxonomy. A 401 that mentions
// an expired credential triggers exactly one refresh; on success the caller
// gets ErrRetry and decides whether to resend.
func (s *tiktokService) classify(ctx context.Context, status int, body []byte, allowRefresh bool) error {
	message := remoteMessage(body)

	if allowRefresh && status == http.StatusUnauthorized && strings.Contains(message, "expired") {
		if _, err := s.RefreshToken(ctx); err != nil {
			return err
		}
		return ErrRetry
	}

	if status < 200 || status >= 300 {
		if message == "" {
			message = "Unknown API error"
		}
		return &APIError{Code: "tiktok_api_error", Message: message, Body: string(body)}
	}

	return nil
}

func (s *tiktokService) log(ctx context.Context, req *http.Request, request string, code int, responseBody string) {
	if s.logs == nil {
		return
	}
	if s.logEnabled != nil && !s.logEnabled(ctx) {
		return
	}

	s.logs.Add(apilog.Entry{
		Date:         s.now(),
		Endpoint:     req.URL.String(),
		Method:       req.Method,
		Request:      request,
		ResponseCode: code,
		ResponseBody: responseBody,
	})
}

func forceHTTPS(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}
	return rawURL
}

func truncateTitle(title string, limit int) string {
	if utf8.RuneCountInString(title) <= limit {
		return title
	}
	runes := []rune(title)
	return string(runes[:limit])
}
