package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phambaophuc/pdf-watermark/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Name() string {
	return "mock"
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// unreachableRedis points at a closed port so every command fails fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestSaveUpload(t *testing.T) {
	store := new(MockObjectStore)
	s := NewStorageServiceWith(store, unreachableRedis(), time.Hour)
	ctx := context.Background()
	data := []byte("%PDF-1.4")

	store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "uploads/report_") && strings.HasSuffix(key, ".pdf")
	}), data, PDFContentType).Return("https://example.test/uploads/report.pdf", nil)

	key, err := s.SaveUpload(ctx, data, "report.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/report_"))
	store.AssertExpectations(t)
}

func TestSaveResult(t *testing.T) {
	store := new(MockObjectStore)
	s := NewStorageServiceWith(store, unreachableRedis(), time.Hour)
	ctx := context.Background()
	data := []byte("%PDF-1.4")

	store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "processed/report-watermarked_")
	}), data, PDFContentType).Return("https://example.test/processed/x.pdf", nil)

	url, err := s.SaveResult(ctx, data, "report-watermarked.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/processed/x.pdf", url)
	store.AssertExpectations(t)
}

func TestSaveUploadPropagatesStoreError(t *testing.T) {
	store := new(MockObjectStore)
	s := NewStorageServiceWith(store, unreachableRedis(), time.Hour)

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	_, err := s.SaveUpload(context.Background(), []byte("x"), "a.pdf")
	assert.EqualError(t, err, "bucket missing")
}

func TestDownloadAndDelete(t *testing.T) {
	store := new(MockObjectStore)
	s := NewStorageServiceWith(store, unreachableRedis(), time.Hour)
	ctx := context.Background()

	store.On("Get", ctx, "uploads/a.pdf").Return([]byte("%PDF-1.4"), nil)
	store.On("Remove", ctx, "uploads/a.pdf").Return(nil)

	data, err := s.Download(ctx, "uploads/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
	require.NoError(t, s.Delete(ctx, "uploads/a.pdf"))
	store.AssertExpectations(t)
}

func TestHealthCheckReportsFailures(t *testing.T) {
	store := new(MockObjectStore)
	s := NewStorageServiceWith(store, unreachableRedis(), time.Hour)
	ctx := context.Background()

	store.On("Ping", ctx).Return(nil)

	status := s.HealthCheck(ctx)
	assert.Equal(t, "healthy", status["mock"])
	assert.True(t, strings.HasPrefix(status["redis"], "unhealthy: "))
}

func TestGetJobRedisUnavailable(t *testing.T) {
	s := NewStorageServiceWith(new(MockObjectStore), unreachableRedis(), time.Hour)

	_, err := s.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrJobNotFound)
}

func TestJobKey(t *testing.T) {
	assert.Equal(t, "watermark_job:abc", jobKey("abc"))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://docs.s3.eu-west-1.amazonaws.com/processed/a.pdf", objectURL("docs", "eu-west-1", "processed/a.pdf"))
}

func TestNewObjectStoreUnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "ftp"}}
	_, err := newObjectStore(cfg)
	assert.EqualError(t, err, `unknown storage backend "ftp"`)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
