package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/extractor"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
)

const noFileDetail = "Download finished but file not detected"

type DownloadService interface {
	ProcessDownload(ctx context.Context, mediaItemID int64) error
}

type downloadService struct {
	mi        repository.MediaItemRepository
	jh        repository.JobHistoryRepository
	reg       *extractor.Registry
	mediaRoot string
}

func NewDownloadService(
	mi repository.MediaItemRepository,
	jh repository.JobHistoryRepository,
	reg *extractor.Registry,
	mediaRoot string) DownloadService {
	return &downloadService{
		mi:        mi,
		jh:        jh,
		reg:       reg,
		mediaRoot: mediaRoot,
	}
}

// ProcessDownload runs the full download attempt for one item: claim,
// tool invocation, output attribution, exactly one status transition and
// exactly one history row. Item-level failures never propagate; a non-nil
// return means the store itself was unreachable.
func (s *downloadService) ProcessDownload(ctx context.Context, mediaItemID int64) error {
	item, err := s.mi.GetByID(ctx, mediaItemID)
	if err != nil {
		return err
	}
	if item == nil {
		slog.Info("download: media item not found", "id", mediaItemID)
		return nil
	}

	claimed, err := s.mi.ClaimForDownload(ctx, mediaItemID)
	if err != nil {
		return err
	}
	if !claimed {
		slog.Info("download: item not claimable", "id", mediaItemID, "status", item.Status)
		return nil
	}

	ext := s.reg.Match(item.SourceURL)
	if ext == nil {
		return s.fail(ctx, mediaItemID, "no extractor for URL")
	}

	jobDir, err := s.jobDir(mediaItemID)
	if err != nil {
		return s.fail(ctx, mediaItemID, err.Error())
	}

	files, err := ext.Fetch(ctx, item.SourceURL, jobDir)
	if err != nil {
		var toolErr *extractor.ToolError
		switch {
		case errors.Is(err, extractor.ErrNoFiles):
			return s.fail(ctx, mediaItemID, noFileDetail)
		case errors.As(err, &toolErr):
			return s.fail(ctx, mediaItemID, lastN(toolErr.Diagnostic(), maxDetailLen))
		default:
			return s.fail(ctx, mediaItemID, lastN(err.Error(), maxDetailLen))
		}
	}

	primary, ok := primaryFile(files)
	if !ok {
		return s.fail(ctx, mediaItemID, noFileDetail)
	}

	if err := s.mi.MarkDownloaded(ctx, mediaItemID, primary.Path, primary.Name); err != nil {
		return err
	}
	s.appendHistory(ctx, mediaItemID, models.HistoryOK, primary.Path)
	return nil
}

// primaryFile picks the item's file out of the fetched set, skipping
// metadata sidecars.
func primaryFile(files []extractor.FetchedFile) (extractor.FetchedFile, bool) {
	for _, f := range files {
		if !f.Sidecar {
			return f, true
		}
	}
	return extractor.FetchedFile{}, false
}

// jobDir creates the per-item output directory. Isolating each job keeps
// the most-recently-modified fallback from attributing a concurrent job's
// file to this one.
func (s *downloadService) jobDir(mediaItemID int64) (string, error) {
	suffix, err := gonanoid.New(8)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.mediaRoot, "items", fmt.Sprintf("%d-%s", mediaItemID, suffix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	return dir, nil
}

func (s *downloadService) fail(ctx context.Context, mediaItemID int64, detail string) error {
	if err := s.mi.MarkDownloadFailed(ctx, mediaItemID, detail); err != nil {
		return err
	}
	s.appendHistory(ctx, mediaItemID, models.HistoryFailed, detail)
	return nil
}

func (s *downloadService) appendHistory(ctx context.Context, mediaItemID int64, status, detail string) {
	_, err := s.jh.Create(ctx, &models.JobHistory{
		MediaItemID: sql.NullInt64{Int64: mediaItemID, Valid: true},
		Action:      models.ActionDownload,
		Status:      status,
		Detail:      detail,
	})
	if err != nil {
		slog.Info("download: history append failed", "id", mediaItemID, "error", err.Error())
	}
}
