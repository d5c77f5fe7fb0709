package transfer

type LoginRequest struct {
	Password string `json:"password"`
}

type EnqueueRequest struct {
	ContentID int64 `json:"content_id"`
	SendNow   bool  `json:"send_now"`
}

type PublishNowRequest struct {
	ContentID int64 `json:"content_id"`
}

type ContentTransitionRequest struct {
	ContentID int64  `json:"content_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
