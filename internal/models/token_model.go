package models

// Token holds the OAuth credentials for the single connected TikTok account.
// ExpiresAt is a unix timestamp in seconds. A token without a refresh token
// cannot be renewed and stays unusable until the operator reconnects.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	OpenID       string `json:"open_id"`
	Scope        string `json:"scope"`
}

func (t *Token) IsZero() bool {
	return t == nil || (t.AccessToken == "" && t.RefreshToken == "")
}
