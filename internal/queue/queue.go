package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// Client enqueues worker invocations. Tasks carry MaxRetry(0): the state
// machine records failures itself and retries are explicit re-enqueues.
type Client struct {
	asynq *asynq.Client
}

func NewClient(asynqClient *asynq.Client) *Client {
	return &Client{asynq: asynqClient}
}

func (c *Client) EnqueueDownload(ctx context.Context, mediaItemID int64) error {
	return c.enqueue(ctx, TaskTypeDownloadMedia, mediaItemID)
}

func (c *Client) EnqueueSend(ctx context.Context, mediaItemID int64) error {
	return c.enqueue(ctx, TaskTypeSendMedia, mediaItemID)
}

func (c *Client) enqueue(ctx context.Context, taskType string, mediaItemID int64) error {
	payload, err := json.Marshal(MediaTaskPayload{MediaItemID: mediaItemID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, payload)

	_, err = c.asynq.EnqueueContext(ctx, task, asynq.MaxRetry(0))
	if err != nil {
		return err
	}

	log.Printf("Task enqueued: %s media_item_id=%d", taskType, mediaItemID)
	return nil
}
