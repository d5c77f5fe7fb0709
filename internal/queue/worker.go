package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

func (d *Dispatcher) HandlePublishNowTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishNowPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return d.pj.ProcessItemByID(ctx, payload.QueueID)
}
