package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStamper struct {
	mock.Mock
}

func (m *MockStamper) Stamp(rs io.ReadSeeker, w io.Writer, phrase string, mode models.WatermarkMode) error {
	args := m.Called(rs, w, phrase, mode)
	if err := args.Error(0); err != nil {
		return err
	}
	_, err := w.Write([]byte("%PDF-stamped"))
	return err
}

type MockJobStorage struct {
	mock.Mock
	statuses []string
}

func (m *MockJobStorage) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockJobStorage) SaveResult(ctx context.Context, data []byte, filename string) (string, error) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Error(1)
}

func (m *MockJobStorage) SaveJob(ctx context.Context, job *models.WatermarkJob) error {
	m.statuses = append(m.statuses, job.Status)
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fakeAcknowledger struct {
	acked, nacked, requeued bool
	onAck                   func()
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	if a.onAck != nil {
		a.onAck()
	}
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestQueue(stamper Stamper, storage JobStorage) *QueueService {
	return &QueueService{
		logger:      zap.NewNop(),
		queueName:   "pdf_watermarking",
		maxFileSize: 1 << 20,
		processor:   stamper,
		storage:     storage,
	}
}

func delivery(t *testing.T, ack amqp.Acknowledger, job *models.WatermarkJob) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestProcessMessageCompletesJob(t *testing.T) {
	stamper := new(MockStamper)
	storage := new(MockJobStorage)
	q := newTestQueue(stamper, storage)
	ctx := context.Background()

	job := &models.WatermarkJob{
		ID:       "job-1",
		InputKey: "uploads/report_1_abc.pdf",
		Filename: "report.pdf",
		Request:  models.WatermarkRequest{Phrase: "CONFIDENTIAL", Mode: models.ModeEveryPage},
		Status:   models.StatusPending,
	}

	storage.On("SaveJob", ctx, mock.Anything).Return(nil)
	storage.On("Download", ctx, "uploads/report_1_abc.pdf").Return([]byte("%PDF-1.4"), nil)
	stamper.On("Stamp", mock.Anything, mock.Anything, "CONFIDENTIAL", models.ModeEveryPage).Return(nil)
	storage.On("SaveResult", ctx, []byte("%PDF-stamped"), "report-watermarked.pdf").Return("https://cdn.test/processed/report-watermarked.pdf", nil)
	storage.On("Delete", ctx, "uploads/report_1_abc.pdf").Return(nil)

	ack := &fakeAcknowledger{}
	q.processMessage(ctx, delivery(t, ack, job), 1)

	assert.True(t, ack.acked)
	assert.Equal(t, []string{models.StatusProcessing, models.StatusCompleted}, storage.statuses)

	last := storage.Calls[len(storage.Calls)-1].Arguments.Get(1).(*models.WatermarkJob)
	require.NotNil(t, last.Result)
	assert.Equal(t, "report-watermarked.pdf", last.Result.Filename)
	assert.Equal(t, "https://cdn.test/processed/report-watermarked.pdf", last.Result.URL)
	assert.Equal(t, int64(len("%PDF-stamped")), last.Result.FileSize)
	stamper.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestProcessMessageRecordsFailure(t *testing.T) {
	stamper := new(MockStamper)
	storage := new(MockJobStorage)
	q := newTestQueue(stamper, storage)
	ctx := context.Background()

	job := &models.WatermarkJob{
		ID:       "job-2",
		InputKey: "uploads/broken.pdf",
		Filename: "broken.pdf",
		Request:  models.WatermarkRequest{Phrase: "CONFIDENTIAL", Mode: models.ModeLastPage},
	}

	storage.On("SaveJob", ctx, mock.Anything).Return(nil)
	storage.On("Download", ctx, "uploads/broken.pdf").Return([]byte("garbage"), nil)
	stamper.On("Stamp", mock.Anything, mock.Anything, "CONFIDENTIAL", models.ModeLastPage).Return(errors.New("invalid PDF document"))

	ack := &fakeAcknowledger{}
	q.processMessage(ctx, delivery(t, ack, job), 1)

	assert.True(t, ack.acked)
	assert.Equal(t, []string{models.StatusProcessing, models.StatusFailed}, storage.statuses)

	last := storage.Calls[len(storage.Calls)-1].Arguments.Get(1).(*models.WatermarkJob)
	assert.Contains(t, last.Error, "invalid PDF document")
	assert.Nil(t, last.Result)
	storage.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProcessMessageStoresFinalStateBeforeAck(t *testing.T) {
	for name, stampErr := range map[string]error{
		"completed": nil,
		"failed":    errors.New("invalid PDF document"),
	} {
		t.Run(name, func(t *testing.T) {
			stamper := new(MockStamper)
			storage := new(MockJobStorage)
			q := newTestQueue(stamper, storage)
			ctx := context.Background()

			job := &models.WatermarkJob{
				ID:       "job-4",
				InputKey: "uploads/a.pdf",
				Filename: "a.pdf",
				Request:  models.WatermarkRequest{Phrase: "CONFIDENTIAL", Mode: models.ModeEveryPage},
			}

			storage.On("SaveJob", ctx, mock.Anything).Return(nil)
			storage.On("Download", ctx, "uploads/a.pdf").Return([]byte("%PDF-1.4"), nil)
			stamper.On("Stamp", mock.Anything, mock.Anything, "CONFIDENTIAL", models.ModeEveryPage).Return(stampErr)
			storage.On("SaveResult", ctx, mock.Anything, "a-watermarked.pdf").Return("https://cdn.test/processed/a.pdf", nil)
			storage.On("Delete", ctx, "uploads/a.pdf").Return(nil)

			var storedAtAck []string
			ack := &fakeAcknowledger{}
			ack.onAck = func() {
				storedAtAck = append([]string(nil), storage.statuses...)
			}

			q.processMessage(ctx, delivery(t, ack, job), 1)

			require.True(t, ack.acked)
			assert.Equal(t, []string{models.StatusProcessing, name}, storedAtAck)
		})
	}
}

func TestProcessMessageRejectsMalformedBody(t *testing.T) {
	storage := new(MockJobStorage)
	q := newTestQueue(new(MockStamper), storage)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")}, 1)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.False(t, ack.acked)
	storage.AssertNotCalled(t, "SaveJob", mock.Anything, mock.Anything)
}

func TestProcessJobWithoutInput(t *testing.T) {
	q := newTestQueue(new(MockStamper), new(MockJobStorage))

	_, err := q.processJob(context.Background(), &models.WatermarkJob{ID: "job-3"})
	assert.EqualError(t, err, "job has no input")
}
