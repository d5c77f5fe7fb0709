package queue

import (
	job "github.com/notAlamaD/tiktoc-autoposting/internal/jobs"
)

// Dispatcher runs operator-initiated "send now" jobs off the request path.
// The durable publish_queue row stays the source of truth; the asynq task
// only carries its id.
type Dispatcher struct {
	pj *job.PublishJob
}

func NewDispatcher(pj *job.PublishJob) *Dispatcher {
	return &Dispatcher{pj: pj}
}

const TaskTypePublishNow = "publish:now"

type PublishNowPayload struct {
	QueueID int64 `json:"queue_id"`
}
