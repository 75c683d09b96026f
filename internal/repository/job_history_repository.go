package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
)

type JobHistoryRepository interface {
	Create(ctx context.Context, h *models.JobHistory) (int64, error)
	List(ctx context.Context, page, pageSize int) ([]*models.JobHistory, int, error)
}

type jobHistoryRepository struct {
	db *sql.DB
}

func NewJobHistoryRepository(db *sql.DB) JobHistoryRepository {
	return &jobHistoryRepository{db: db}
}

func (r *jobHistoryRepository) Create(ctx context.Context, h *models.JobHistory) (int64, error) {
	query := `
		INSERT INTO job_history (media_item_id, action, status, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, h.MediaItemID, h.Action, h.Status, h.Detail).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *jobHistoryRepository) List(ctx context.Context, page, pageSize int) ([]*models.JobHistory, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_history`).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	query := `
		SELECT id, media_item_id, action, status, detail, created_at
		FROM job_history
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.JobHistory
	for rows.Next() {
		var h models.JobHistory
		if err := rows.Scan(&h.ID, &h.MediaItemID, &h.Action, &h.Status, &h.Detail, &h.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, 0, err
		}
		entries = append(entries, &h)
	}
	return entries, total, rows.Err()
}
