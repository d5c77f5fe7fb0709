package transfer

import "github.com/golang-jwt/jwt/v5"

type TiktokTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
}

type TiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

type TiktokUser struct {
	OpenID         string `json:"open_id"`
	AvatarURL      string `json:"avatar_url"`
	DisplayName    string `json:"display_name"`
	BioDescription string `json:"bio_description"`
}

type TiktokUserResponse struct {
	Data struct {
		User TiktokUser `json:"user"`
	} `json:"data"`
	Error TiktokError `json:"error"`
}

// TiktokCreatorInfo reports account-level posting eligibility and limits.
// CanPost is a pointer so "not reported" is distinguishable from an explicit
// false.
type TiktokCreatorInfo struct {
	CreatorAvatarURL        string   `json:"creator_avatar_url"`
	CreatorUsername         string   `json:"creator_username"`
	CreatorNickname         string   `json:"creator_nickname"`
	PrivacyLevelOptions     []string `json:"privacy_level_options"`
	CommentDisabled         bool     `json:"comment_disabled"`
	DuetDisabled            bool     `json:"duet_disabled"`
	StitchDisabled          bool     `json:"stitch_disabled"`
	CanPost                 *bool    `json:"can_post,omitempty"`
	MaxVideoPostDurationSec int      `json:"max_video_post_duration_sec"`
}

type TiktokCreatorInfoResponse struct {
	Data  TiktokCreatorInfo `json:"data"`
	Error TiktokError       `json:"error"`
}

type PostInfo struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PrivacyLevel string `json:"privacy_level,omitempty"`
}

type SourceInfo struct {
	Source          string   `json:"source"`
	VideoURL        string   `json:"video_url,omitempty"`
	PhotoImages     []string `json:"photo_images,omitempty"`
	PhotoCoverIndex *int     `json:"photo_cover_index,omitempty"`
}

type PublishRequest struct {
	PostInfo   PostInfo   `json:"post_info"`
	SourceInfo SourceInfo `json:"source_info"`
	PostMode   string     `json:"post_mode"`
	MediaType  string     `json:"media_type"`
}

type TiktokPublishData struct {
	PostID    string `json:"post_id"`
	PublishID string `json:"publish_id"`
}

type TiktokPublishResponse struct {
	Data  TiktokPublishData `json:"data"`
	Error TiktokError       `json:"error"`
}

// Legacy two-step flow, superseded by the pull-from-URL publish but kept for
// compatibility with older app configurations.
type TiktokUploadData struct {
	MediaID string `json:"media_id"`
}

type TiktokUploadResponse struct {
	Data  TiktokUploadData `json:"data"`
	Error TiktokError      `json:"error"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
