package models

import "time"

type MediaItem struct {
	ID                int64     `db:"id" json:"id"`
	SourceURL         string    `db:"source_url" json:"source_url"`
	LocalPath         string    `db:"local_path" json:"local_path,omitempty"`
	Filename          string    `db:"filename" json:"filename,omitempty"`
	Status            string    `db:"status" json:"status"`
	Selected          bool      `db:"selected" json:"selected"`
	ErrorMessage      string    `db:"error_message" json:"error_message,omitempty"`
	TelegramMessageID string    `db:"telegram_message_id" json:"telegram_message_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	StatusQueued      = "queued"
	StatusDownloading = "downloading"
	StatusDownloaded  = "downloaded"
	StatusFailed      = "failed"
	StatusSent        = "sent"
	StatusSendFailed  = "send_failed"
)

// Sendable reports whether the item is in a state the send worker
// accepts work for.
func (m *MediaItem) Sendable() bool {
	return m.Status == StatusDownloaded || m.Status == StatusSendFailed
}
