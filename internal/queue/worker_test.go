package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDownloadService struct {
	ids []int64
	err error
}

func (s *recordingDownloadService) ProcessDownload(ctx context.Context, mediaItemID int64) error {
	s.ids = append(s.ids, mediaItemID)
	return s.err
}

type recordingSendService struct {
	ids []int64
	err error
}

func (s *recordingSendService) ProcessSend(ctx context.Context, mediaItemID int64) error {
	s.ids = append(s.ids, mediaItemID)
	return s.err
}

func newTask(t *testing.T, taskType string, id int64) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(MediaTaskPayload{MediaItemID: id})
	require.NoError(t, err)
	return asynq.NewTask(taskType, payload)
}

func TestHandleDownloadTask(t *testing.T) {
	ds := &recordingDownloadService{}
	q := NewQueue(ds, &recordingSendService{})

	err := q.HandleDownloadTask(context.Background(), newTask(t, TaskTypeDownloadMedia, 7))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ds.ids)
}

func TestHandleDownloadTask_ServiceErrorNotRedelivered(t *testing.T) {
	ds := &recordingDownloadService{err: errors.New("boom")}
	q := NewQueue(ds, &recordingSendService{})

	err := q.HandleDownloadTask(context.Background(), newTask(t, TaskTypeDownloadMedia, 7))
	assert.NoError(t, err)
}

func TestHandleDownloadTask_BadPayload(t *testing.T) {
	ds := &recordingDownloadService{}
	q := NewQueue(ds, &recordingSendService{})

	err := q.HandleDownloadTask(context.Background(), asynq.NewTask(TaskTypeDownloadMedia, []byte("{not json")))
	assert.Error(t, err)
	assert.Empty(t, ds.ids)
}

func TestHandleSendTask(t *testing.T) {
	ss := &recordingSendService{}
	q := NewQueue(&recordingDownloadService{}, ss)

	err := q.HandleSendTask(context.Background(), newTask(t, TaskTypeSendMedia, 11))
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ss.ids)
}

func TestHandleSendTask_ServiceErrorNotRedelivered(t *testing.T) {
	ss := &recordingSendService{err: errors.New("boom")}
	q := NewQueue(&recordingDownloadService{}, ss)

	err := q.HandleSendTask(context.Background(), newTask(t, TaskTypeSendMedia, 11))
	assert.NoError(t, err)
}
