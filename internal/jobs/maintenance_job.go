package job

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
)

const pruneAge = 24 * time.Hour

// MaintenanceJob runs periodically: it fails items whose download worker
// died mid-job, and prunes per-job output directories that no longer back
// a usable item.
type MaintenanceJob struct {
	mi         repository.MediaItemRepository
	jh         repository.JobHistoryRepository
	mediaRoot  string
	staleAfter time.Duration
}

func NewMaintenanceJob(
	mi repository.MediaItemRepository,
	jh repository.JobHistoryRepository,
	mediaRoot string,
	staleAfter time.Duration) *MaintenanceJob {
	return &MaintenanceJob{
		mi:         mi,
		jh:         jh,
		mediaRoot:  mediaRoot,
		staleAfter: staleAfter,
	}
}

func (j *MaintenanceJob) Run() {
	ctx := context.Background()
	j.recoverStale(ctx)
	j.pruneJobDirs(ctx)
}

func (j *MaintenanceJob) recoverStale(ctx context.Context) {
	ids, err := j.mi.RecoverStaleDownloads(ctx, j.staleAfter)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, id := range ids {
		_, err := j.jh.Create(ctx, &models.JobHistory{
			MediaItemID: sql.NullInt64{Int64: id, Valid: true},
			Action:      models.ActionDownload,
			Status:      models.HistoryFailed,
			Detail:      "worker lost",
		})
		if err != nil {
			slog.Info(err.Error())
		}
	}
	if len(ids) > 0 {
		slog.Info("maintenance: recovered stale downloads", "count", len(ids))
	}
}

// pruneJobDirs removes old per-job directories whose item failed or no
// longer exists. Directories named "<id>-<suffix>" under <mediaRoot>/items.
func (j *MaintenanceJob) pruneJobDirs(ctx context.Context) {
	itemsDir := filepath.Join(j.mediaRoot, "items")
	entries, err := os.ReadDir(itemsDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-pruneAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		idPart, _, ok := strings.Cut(entry.Name(), "-")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			continue
		}

		item, err := j.mi.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if item == nil || item.Status == models.StatusFailed {
			if err := os.RemoveAll(filepath.Join(itemsDir, entry.Name())); err != nil {
				slog.Info(err.Error())
			}
		}
	}
}
