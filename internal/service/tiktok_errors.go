package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRetry signals that an expired access token was refreshed successfully
// and the caller should resend the original request. The client never resends
// on its own; that keeps a refresh loop impossible.
var ErrRetry = errors.New("token refreshed, retry request")

var (
	ErrMissingRefreshToken = errors.New("missing_refresh_token: refresh token missing")
	ErrMissingCredentials  = errors.New("missing_credentials: TikTok client key or secret not configured")
)

// APIError is a classified remote failure carrying the platform message and
// the raw response body for diagnosis.
type APIError struct {
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// remoteMessage digs a human-readable message out of a TikTok response body.
// Error payloads carry either a top-level message or a nested error object.
func remoteMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error.Message
}
