package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// Task handlers swallow item-level outcomes; the services already record
// them as status transitions plus history rows. A returned error here
// would only make asynq re-deliver, which the state machine forbids.

func (q *Queue) HandleDownloadTask(ctx context.Context, task *asynq.Task) error {
	var payload MediaTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.ds.ProcessDownload(ctx, payload.MediaItemID); err != nil {
		log.Printf("download task: media_item_id=%d: %v", payload.MediaItemID, err)
	}
	return nil
}

func (q *Queue) HandleSendTask(ctx context.Context, task *asynq.Task) error {
	var payload MediaTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.ss.ProcessSend(ctx, payload.MediaItemID); err != nil {
		log.Printf("send task: media_item_id=%d: %v", payload.MediaItemID, err)
	}
	return nil
}
