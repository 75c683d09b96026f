package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/telegram"
)

type SendService interface {
	ProcessSend(ctx context.Context, mediaItemID int64) error
}

type sendService struct {
	mi      repository.MediaItemRepository
	jh      repository.JobHistoryRepository
	tg      *telegram.Client
	chatID  string
	archive *ArchiveService
}

// NewSendService wires the send worker. archive may be nil-equivalent
// (disabled); it only runs after a confirmed send.
func NewSendService(
	mi repository.MediaItemRepository,
	jh repository.JobHistoryRepository,
	tg *telegram.Client,
	chatID string,
	archive *ArchiveService) SendService {
	return &sendService{
		mi:      mi,
		jh:      jh,
		tg:      tg,
		chatID:  chatID,
		archive: archive,
	}
}

// ProcessSend uploads the item's local file to the destination chat.
// Preconditions short-circuit in order: file present, credentials present.
// One status transition and one history row per invocation. A retry after
// a client-side timeout can duplicate the message when the relay already
// stored it; the Bot API has no idempotency token to prevent that.
func (s *sendService) ProcessSend(ctx context.Context, mediaItemID int64) error {
	item, err := s.mi.GetByID(ctx, mediaItemID)
	if err != nil {
		return err
	}
	if item == nil {
		slog.Info("send: media item not found", "id", mediaItemID)
		return nil
	}

	if item.LocalPath == "" || !fileExists(item.LocalPath) {
		return s.fail(ctx, mediaItemID, "File not found")
	}

	if !s.tg.Configured() || s.chatID == "" {
		return s.fail(ctx, mediaItemID, "Telegram config missing")
	}

	msg, err := s.tg.SendDocument(ctx, s.chatID, item.LocalPath)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return s.fail(ctx, mediaItemID, firstN(apiErr.Body, maxDetailLen))
		}
		return s.fail(ctx, mediaItemID, firstN(err.Error(), maxDetailLen))
	}

	messageID := strconv.FormatInt(msg.MessageID, 10)
	if err := s.mi.MarkSent(ctx, mediaItemID, messageID); err != nil {
		return err
	}
	s.appendHistory(ctx, mediaItemID, models.HistoryOK, messageID)

	if s.archive.Enabled() {
		if err := s.archive.ArchiveFile(ctx, mediaItemID, item.LocalPath); err != nil {
			slog.Info("send: archive upload failed", "id", mediaItemID, "error", err.Error())
		}
	}
	return nil
}

func (s *sendService) fail(ctx context.Context, mediaItemID int64, detail string) error {
	if err := s.mi.MarkSendFailed(ctx, mediaItemID, detail); err != nil {
		return err
	}
	s.appendHistory(ctx, mediaItemID, models.HistoryFailed, detail)
	return nil
}

func (s *sendService) appendHistory(ctx context.Context, mediaItemID int64, status, detail string) {
	_, err := s.jh.Create(ctx, &models.JobHistory{
		MediaItemID: sql.NullInt64{Int64: mediaItemID, Valid: true},
		Action:      models.ActionSend,
		Status:      status,
		Detail:      detail,
	})
	if err != nil {
		slog.Info("send: history append failed", "id", mediaItemID, "error", err.Error())
	}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
