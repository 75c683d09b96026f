package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/extractor"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
)

// mockMediaRepo implements repository.MediaItemRepository in memory.
type mockMediaRepo struct {
	mu     sync.Mutex
	items  map[int64]*models.MediaItem
	nextID int64
}

func newMockMediaRepo() *mockMediaRepo {
	return &mockMediaRepo{items: make(map[int64]*models.MediaItem), nextID: 1}
}

func (m *mockMediaRepo) add(item *models.MediaItem) *models.MediaItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.nextID
	if item.Status == "" {
		item.Status = models.StatusQueued
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	m.items[item.ID] = item
	m.nextID++
	return item
}

func (m *mockMediaRepo) Create(ctx context.Context, sourceURL string) (int64, error) {
	item := m.add(&models.MediaItem{SourceURL: sourceURL, Status: models.StatusQueued})
	return item.ID, nil
}

func (m *mockMediaRepo) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func matchesFilter(item *models.MediaItem, f repository.ListFilter) bool {
	if f.Status != "" && f.Status != "all" && item.Status != f.Status {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(item.SourceURL), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

func (m *mockMediaRepo) List(ctx context.Context, f repository.ListFilter) ([]*models.MediaItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MediaItem
	for _, item := range m.items {
		if matchesFilter(item, f) {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockMediaRepo) ClaimForDownload(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Status != models.StatusQueued {
		return false, nil
	}
	item.Status = models.StatusDownloading
	item.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockMediaRepo) MarkDownloaded(ctx context.Context, id int64, localPath, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[id]
	item.Status = models.StatusDownloaded
	item.LocalPath = localPath
	item.Filename = filename
	item.ErrorMessage = ""
	item.UpdatedAt = time.Now()
	return nil
}

func (m *mockMediaRepo) MarkDownloadFailed(ctx context.Context, id int64, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[id]
	item.Status = models.StatusFailed
	item.ErrorMessage = errorMessage
	item.UpdatedAt = time.Now()
	return nil
}

func (m *mockMediaRepo) MarkSent(ctx context.Context, id int64, telegramMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[id]
	item.Status = models.StatusSent
	item.TelegramMessageID = telegramMessageID
	item.ErrorMessage = ""
	item.UpdatedAt = time.Now()
	return nil
}

func (m *mockMediaRepo) MarkSendFailed(ctx context.Context, id int64, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[id]
	item.Status = models.StatusSendFailed
	item.ErrorMessage = errorMessage
	item.UpdatedAt = time.Now()
	return nil
}

func (m *mockMediaRepo) ToggleSelected(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[id]
	item.Selected = !item.Selected
	return nil
}

func (m *mockMediaRepo) BulkSetSelected(ctx context.Context, f repository.ListFilter, selected bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, item := range m.items {
		if matchesFilter(item, f) {
			item.Selected = selected
			count++
		}
	}
	return count, nil
}

func (m *mockMediaRepo) ListSelectedSendable(ctx context.Context) ([]*models.MediaItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MediaItem
	for _, item := range m.items {
		if item.Selected && item.Sendable() {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockMediaRepo) ListByStatus(ctx context.Context, status string) ([]*models.MediaItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MediaItem
	for _, item := range m.items {
		if item.Status == status {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockMediaRepo) RecoverStaleDownloads(ctx context.Context, olderThan time.Duration) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var ids []int64
	for _, item := range m.items {
		if item.Status == models.StatusDownloading && item.UpdatedAt.Before(cutoff) {
			item.Status = models.StatusFailed
			item.ErrorMessage = "worker lost"
			ids = append(ids, item.ID)
		}
	}
	return ids, nil
}

// mockHistoryRepo records appends in order.
type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []models.JobHistory
	nextID  int64
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{nextID: 1}
}

func (m *mockHistoryRepo) Create(ctx context.Context, h *models.JobHistory) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.entries = append(m.entries, cp)
	m.nextID++
	return cp.ID, nil
}

func (m *mockHistoryRepo) List(ctx context.Context, page, pageSize int) ([]*models.JobHistory, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.JobHistory
	for i := len(m.entries) - 1; i >= 0; i-- {
		cp := m.entries[i]
		out = append(out, &cp)
	}
	return out, len(m.entries), nil
}

func (m *mockHistoryRepo) byAction(action string) []models.JobHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.JobHistory
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockHistoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockEnqueuer records enqueues and can observe state at enqueue time.
type mockEnqueuer struct {
	mu        sync.Mutex
	downloads []int64
	sends     []int64
	onSend    func(id int64)
}

func (m *mockEnqueuer) EnqueueDownload(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, id)
	return nil
}

func (m *mockEnqueuer) EnqueueSend(ctx context.Context, id int64) error {
	if m.onSend != nil {
		m.onSend(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, id)
	return nil
}

// fakeExtractor returns canned results, optionally materializing files
// into the destination directory first.
type fakeExtractor struct {
	name    string
	files   []extractor.FetchedFile
	err     error
	prepare func(destDir string) []extractor.FetchedFile
}

func (f *fakeExtractor) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeExtractor) Match(url string) bool { return true }

func (f *fakeExtractor) Fetch(ctx context.Context, url, destDir string) ([]extractor.FetchedFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.prepare != nil {
		return f.prepare(destDir), nil
	}
	return f.files, nil
}
