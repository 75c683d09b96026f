package models

import (
	"database/sql"
	"time"
)

// JobHistory rows are append-only. MediaItemID is nullable so the audit
// trail survives item deletion.
type JobHistory struct {
	ID          int64         `db:"id" json:"id"`
	MediaItemID sql.NullInt64 `db:"media_item_id" json:"media_item_id"`
	Action      string        `db:"action" json:"action"`
	Status      string        `db:"status" json:"status"`
	Detail      string        `db:"detail" json:"detail"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

const (
	ActionDownload = "download"
	ActionSend     = "send"
	ActionRetry    = "retry"
)

const (
	HistoryOK     = "ok"
	HistoryFailed = "failed"
)
