package queue

import (
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/service"
)

// Queue is the worker side of the task queue: it resolves asynq tasks to
// the download/send services.
type Queue struct {
	ds service.DownloadService
	ss service.SendService
}

func NewQueue(ds service.DownloadService, ss service.SendService) *Queue {
	return &Queue{
		ds: ds,
		ss: ss,
	}
}

const (
	TaskTypeDownloadMedia = "media:download"
	TaskTypeSendMedia     = "media:send"
)

type MediaTaskPayload struct {
	MediaItemID int64 `json:"media_item_id"`
}
