package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/pdf-watermark/internal/config"
	"github.com/redis/go-redis/v9"
)

// ObjectStore is a bucket holding uploaded and watermarked PDFs.
type ObjectStore interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type StorageService struct {
	store        ObjectStore
	redisClient  *redis.Client
	jobTTL       time.Duration
	uploadPrefix string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	store, err := newObjectStore(cfg)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	s := NewStorageServiceWith(store, redisClient, cfg.Storage.JobTTL)
	if cfg.Storage.UploadPath != "" {
		s.uploadPrefix = cfg.Storage.UploadPath
	}
	return s, nil
}

func NewStorageServiceWith(store ObjectStore, redisClient *redis.Client, jobTTL time.Duration) *StorageService {
	return &StorageService{
		store:        store,
		redisClient:  redisClient,
		jobTTL:       jobTTL,
		uploadPrefix: UploadsPrefix,
	}
}

func newObjectStore(cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSupabase:
		return NewSupabaseStore(cfg.Supabase), nil
	case config.StorageBackendS3:
		return NewS3Store(context.Background(), cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close closes the redis connection pool
func (s *StorageService) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
