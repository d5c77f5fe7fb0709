package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func EnqueuePublishNow(asynqClient *asynq.Client, payload PublishNowPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishNow, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	log.Printf("Task scheduled: %+v", payload)
	return nil
}
