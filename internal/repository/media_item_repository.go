package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
)

// ListFilter narrows List and BulkSetSelected. Status "all" or "" matches
// every status; Query is a substring match on source_url.
type ListFilter struct {
	Status   string
	Query    string
	Page     int
	PageSize int
}

type MediaItemRepository interface {
	Create(ctx context.Context, sourceURL string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaItem, error)
	List(ctx context.Context, f ListFilter) ([]*models.MediaItem, int, error)
	ClaimForDownload(ctx context.Context, id int64) (bool, error)
	MarkDownloaded(ctx context.Context, id int64, localPath, filename string) error
	MarkDownloadFailed(ctx context.Context, id int64, errorMessage string) error
	MarkSent(ctx context.Context, id int64, telegramMessageID string) error
	MarkSendFailed(ctx context.Context, id int64, errorMessage string) error
	ToggleSelected(ctx context.Context, id int64) error
	BulkSetSelected(ctx context.Context, f ListFilter, selected bool) (int64, error)
	ListSelectedSendable(ctx context.Context) ([]*models.MediaItem, error)
	ListByStatus(ctx context.Context, status string) ([]*models.MediaItem, error)
	RecoverStaleDownloads(ctx context.Context, olderThan time.Duration) ([]int64, error)
}

type mediaItemRepository struct {
	db *sql.DB
}

func NewMediaItemRepository(db *sql.DB) MediaItemRepository {
	return &mediaItemRepository{db: db}
}

const mediaItemColumns = `id, source_url, local_path, filename, status, selected, error_message, telegram_message_id, created_at, updated_at`

func scanMediaItem(row interface{ Scan(...any) error }) (*models.MediaItem, error) {
	var m models.MediaItem
	err := row.Scan(&m.ID, &m.SourceURL, &m.LocalPath, &m.Filename, &m.Status, &m.Selected, &m.ErrorMessage, &m.TelegramMessageID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaItemRepository) Create(ctx context.Context, sourceURL string) (int64, error) {
	query := `
		INSERT INTO media_items (source_url, status)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, sourceURL, models.StatusQueued).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaItemRepository) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	item, err := scanMediaItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return item, nil
}

func filterClause(f ListFilter, args []any) (string, []any) {
	where := " WHERE 1=1"
	if f.Status != "" && f.Status != "all" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where += fmt.Sprintf(" AND source_url ILIKE $%d", len(args))
	}
	return where, args
}

func (r *mediaItemRepository) List(ctx context.Context, f ListFilter) ([]*models.MediaItem, int, error) {
	where, args := filterClause(f, nil)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_items"+where, args...).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	if f.PageSize <= 0 {
		f.PageSize = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := fmt.Sprintf(`SELECT `+mediaItemColumns+` FROM media_items%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// ClaimForDownload flips queued -> downloading. The status predicate makes
// the claim a compare-and-set, so a double-enqueued download runs once.
func (r *mediaItemRepository) ClaimForDownload(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE media_items
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, models.StatusDownloading, id, models.StatusQueued)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *mediaItemRepository) MarkDownloaded(ctx context.Context, id int64, localPath, filename string) error {
	query := `
		UPDATE media_items
		SET status = $1, local_path = $2, filename = $3, error_message = '', updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusDownloaded, localPath, filename, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaItemRepository) MarkDownloadFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE media_items
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusFailed, errorMessage, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaItemRepository) MarkSent(ctx context.Context, id int64, telegramMessageID string) error {
	query := `
		UPDATE media_items
		SET status = $1, telegram_message_id = $2, error_message = '', updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusSent, telegramMessageID, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaItemRepository) MarkSendFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE media_items
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusSendFailed, errorMessage, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaItemRepository) ToggleSelected(ctx context.Context, id int64) error {
	query := `UPDATE media_items SET selected = NOT selected, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaItemRepository) BulkSetSelected(ctx context.Context, f ListFilter, selected bool) (int64, error) {
	args := []any{selected}
	where, args := filterClause(f, args)
	query := `UPDATE media_items SET selected = $1, updated_at = NOW()` + where

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func (r *mediaItemRepository) ListSelectedSendable(ctx context.Context) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items WHERE selected = TRUE AND status = ANY($1) ORDER BY created_at DESC`
	return r.listBy(ctx, query, pq.Array([]string{models.StatusDownloaded, models.StatusSendFailed}))
}

func (r *mediaItemRepository) ListByStatus(ctx context.Context, status string) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items WHERE status = $1 ORDER BY created_at DESC`
	return r.listBy(ctx, query, status)
}

func (r *mediaItemRepository) listBy(ctx context.Context, query string, args ...any) ([]*models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecoverStaleDownloads fails items stuck in downloading, which happens
// when a worker process dies mid-job. Returns the affected ids so the
// caller can append history rows.
func (r *mediaItemRepository) RecoverStaleDownloads(ctx context.Context, olderThan time.Duration) ([]int64, error) {
	query := `
		UPDATE media_items
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE status = $3 AND updated_at < $4
		RETURNING id
	`
	cutoff := time.Now().Add(-olderThan)
	rows, err := r.db.QueryContext(ctx, query, models.StatusFailed, "worker lost", models.StatusDownloading, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
