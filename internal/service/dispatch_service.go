package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
)

var ErrInvalidURL = errors.New("invalid URL")

// Enqueuer hands worker invocations to the task queue. Implemented by
// the queue package's asynq-backed client.
type Enqueuer interface {
	EnqueueDownload(ctx context.Context, mediaItemID int64) error
	EnqueueSend(ctx context.Context, mediaItemID int64) error
}

type DispatchService interface {
	Submit(ctx context.Context, sourceURL string) (int64, error)
	ListItems(ctx context.Context, f repository.ListFilter) ([]*models.MediaItem, int, error)
	ToggleSelected(ctx context.Context, mediaItemID int64) error
	BulkSetSelected(ctx context.Context, f repository.ListFilter, selected bool) (int64, error)
	SendSelected(ctx context.Context) (int, error)
	RetryFailedSends(ctx context.Context) (int, error)
	History(ctx context.Context, page, pageSize int) ([]*models.JobHistory, int, error)
}

type dispatchService struct {
	mi repository.MediaItemRepository
	jh repository.JobHistoryRepository
	q  Enqueuer
}

func NewDispatchService(
	mi repository.MediaItemRepository,
	jh repository.JobHistoryRepository,
	q Enqueuer) DispatchService {
	return &dispatchService{
		mi: mi,
		jh: jh,
		q:  q,
	}
}

// Submit creates a queued item and enqueues its download.
func (s *dispatchService) Submit(ctx context.Context, sourceURL string) (int64, error) {
	if !IsURL(sourceURL) {
		return 0, ErrInvalidURL
	}

	id, err := s.mi.Create(ctx, sourceURL)
	if err != nil {
		return 0, err
	}

	if err := s.q.EnqueueDownload(ctx, id); err != nil {
		slog.Info("dispatch: enqueue download failed", "id", id, "error", err.Error())
		return 0, err
	}
	return id, nil
}

func (s *dispatchService) ListItems(ctx context.Context, f repository.ListFilter) ([]*models.MediaItem, int, error) {
	return s.mi.List(ctx, f)
}

func (s *dispatchService) ToggleSelected(ctx context.Context, mediaItemID int64) error {
	return s.mi.ToggleSelected(ctx, mediaItemID)
}

func (s *dispatchService) BulkSetSelected(ctx context.Context, f repository.ListFilter, selected bool) (int64, error) {
	return s.mi.BulkSetSelected(ctx, f, selected)
}

// SendSelected enqueues the send worker for every selected item in a
// sendable status. Non-sendable selected items are skipped, not errors.
func (s *dispatchService) SendSelected(ctx context.Context) (int, error) {
	items, err := s.mi.ListSelectedSendable(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, item := range items {
		if err := s.q.EnqueueSend(ctx, item.ID); err != nil {
			slog.Info("dispatch: enqueue send failed", "id", item.ID, "error", err.Error())
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// RetryFailedSends re-enqueues every send_failed item. The retry marker
// is written before the enqueue so it is durable even if the worker
// never runs.
func (s *dispatchService) RetryFailedSends(ctx context.Context) (int, error) {
	items, err := s.mi.ListByStatus(ctx, models.StatusSendFailed)
	if err != nil {
		return 0, err
	}

	retried := 0
	for _, item := range items {
		_, err := s.jh.Create(ctx, &models.JobHistory{
			MediaItemID: sql.NullInt64{Int64: item.ID, Valid: true},
			Action:      models.ActionRetry,
			Status:      models.HistoryOK,
			Detail:      "Retry queued",
		})
		if err != nil {
			slog.Info("dispatch: retry marker failed", "id", item.ID, "error", err.Error())
			continue
		}
		if err := s.q.EnqueueSend(ctx, item.ID); err != nil {
			slog.Info("dispatch: enqueue retry failed", "id", item.ID, "error", err.Error())
			continue
		}
		retried++
	}
	return retried, nil
}

func (s *dispatchService) History(ctx context.Context, page, pageSize int) ([]*models.JobHistory, int, error) {
	return s.jh.List(ctx, page, pageSize)
}

// IsURL accepts absolute http(s) URLs only.
func IsURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
