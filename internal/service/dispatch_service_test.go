package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/models"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
)

func TestSubmit(t *testing.T) {
	mi := newMockMediaRepo()
	jh := newMockHistoryRepo()
	q := &mockEnqueuer{}
	svc := NewDispatchService(mi, jh, q)

	id, err := svc.Submit(context.Background(), "https://example.com/gallery/1")
	require.NoError(t, err)

	item, _ := mi.GetByID(context.Background(), id)
	require.NotNil(t, item)
	assert.Equal(t, models.StatusQueued, item.Status)
	assert.Equal(t, "https://example.com/gallery/1", item.SourceURL)
	assert.Equal(t, []int64{id}, q.downloads)
}

func TestSubmit_InvalidURL(t *testing.T) {
	mi := newMockMediaRepo()
	q := &mockEnqueuer{}
	svc := NewDispatchService(mi, newMockHistoryRepo(), q)

	for _, input := range []string{"not a url", "ftp://example.com/x", "", "example.com/no-scheme"} {
		_, err := svc.Submit(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidURL, "input %q", input)
	}
	assert.Empty(t, q.downloads)
	_, total, _ := mi.List(context.Background(), repository.ListFilter{})
	assert.Zero(t, total, "rejected input must not create items")
}

func TestSendSelected_FiltersStatus(t *testing.T) {
	mi := newMockMediaRepo()
	q := &mockEnqueuer{}
	svc := NewDispatchService(mi, newMockHistoryRepo(), q)

	downloaded := mi.add(&models.MediaItem{SourceURL: "https://a", Status: models.StatusDownloaded, Selected: true})
	sendFailed := mi.add(&models.MediaItem{SourceURL: "https://b", Status: models.StatusSendFailed, Selected: true})
	mi.add(&models.MediaItem{SourceURL: "https://c", Status: models.StatusQueued, Selected: true})
	mi.add(&models.MediaItem{SourceURL: "https://d", Status: models.StatusDownloaded, Selected: false})

	count, err := svc.SendSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.ElementsMatch(t, []int64{downloaded.ID, sendFailed.ID}, q.sends)
}

func TestRetryFailedSends_MarkerBeforeEnqueue(t *testing.T) {
	mi := newMockMediaRepo()
	jh := newMockHistoryRepo()
	q := &mockEnqueuer{}
	svc := NewDispatchService(mi, jh, q)

	a := mi.add(&models.MediaItem{SourceURL: "https://a", Status: models.StatusSendFailed})
	b := mi.add(&models.MediaItem{SourceURL: "https://b", Status: models.StatusSendFailed})
	mi.add(&models.MediaItem{SourceURL: "https://c", Status: models.StatusFailed})

	// The retry marker must already be durable when the enqueue happens.
	markersAtEnqueue := make(map[int64]int)
	q.onSend = func(id int64) {
		for _, e := range jh.byAction(models.ActionRetry) {
			if e.MediaItemID.Int64 == id {
				markersAtEnqueue[id]++
			}
		}
	}

	count, err := svc.RetryFailedSends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, q.sends)

	for _, id := range []int64{a.ID, b.ID} {
		assert.Equal(t, 1, markersAtEnqueue[id], "item %d", id)
	}

	markers := jh.byAction(models.ActionRetry)
	require.Len(t, markers, 2)
	for _, marker := range markers {
		assert.Equal(t, models.HistoryOK, marker.Status)
		assert.Equal(t, "Retry queued", marker.Detail)
	}
}

func TestBulkSetSelected(t *testing.T) {
	mi := newMockMediaRepo()
	svc := NewDispatchService(mi, newMockHistoryRepo(), &mockEnqueuer{})

	f1 := mi.add(&models.MediaItem{SourceURL: "https://a", Status: models.StatusFailed})
	f2 := mi.add(&models.MediaItem{SourceURL: "https://b", Status: models.StatusFailed})
	ok := mi.add(&models.MediaItem{SourceURL: "https://c", Status: models.StatusDownloaded})

	count, err := svc.BulkSetSelected(context.Background(), repository.ListFilter{Status: models.StatusFailed}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, id := range []int64{f1.ID, f2.ID} {
		item, _ := mi.GetByID(context.Background(), id)
		assert.True(t, item.Selected)
	}
	other, _ := mi.GetByID(context.Background(), ok.ID)
	assert.False(t, other.Selected)
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/gallery/1", true},
		{"http://example.com", true},
		{"ftp://example.com", false},
		{"not a url", false},
		{"", false},
		{"/relative/path", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsURL(tt.input), "input %q", tt.input)
	}
}
