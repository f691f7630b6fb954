package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/pdf-watermark/internal/config"
	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	sbClient *storage_go.Client
	bucket   string
}

func NewSupabaseStore(cfg config.SupabaseConfig) *SupabaseStore {
	return &SupabaseStore{
		sbClient: storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil),
		bucket:   cfg.BUCKET,
	}
}

func (s *SupabaseStore) Name() string {
	return "supabase"
}

// Put uploads data to Supabase Storage and returns its public URL
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

func (s *SupabaseStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.sbClient.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}
	return data, nil
}

func (s *SupabaseStore) Remove(ctx context.Context, key string) error {
	_, err := s.sbClient.RemoveFile(s.bucket, []string{key})
	return err
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{Limit: 1})
	return err
}
