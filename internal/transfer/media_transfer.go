package transfer

import "github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"

type SubmitRequest struct {
	SourceURL string `json:"source_url"`
}

type BulkSelectRequest struct {
	Status string `json:"status"`
	Query  string `json:"q"`
}

type ItemsPage struct {
	Items []*models.MediaItem `json:"items"`
	Page  int                 `json:"page"`
	Pages int                 `json:"pages"`
	Total int                 `json:"total"`
}

type HistoryPage struct {
	Entries []*models.JobHistory `json:"entries"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
	Total   int                  `json:"total"`
}
