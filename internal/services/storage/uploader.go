package storage

import (
	"context"

	"github.com/phambaophuc/pdf-watermark/pkg/utils"
)

const (
	UploadsPrefix   = "uploads"
	ProcessedPrefix = "processed"
	PDFContentType  = "application/pdf"
)

// SaveUpload stores an uploaded PDF and returns its storage key.
func (s *StorageService) SaveUpload(ctx context.Context, data []byte, filename string) (string, error) {
	key := utils.GenerateStorageKey(s.uploadPrefix, filename)
	if _, err := s.store.Put(ctx, key, data, PDFContentType); err != nil {
		return "", err
	}
	return key, nil
}

// SaveResult stores a watermarked PDF and returns its URL.
func (s *StorageService) SaveResult(ctx context.Context, data []byte, filename string) (string, error) {
	key := utils.GenerateStorageKey(ProcessedPrefix, filename)
	return s.store.Put(ctx, key, data, PDFContentType)
}

func (s *StorageService) Download(ctx context.Context, key string) ([]byte, error) {
	return s.store.Get(ctx, key)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.store.Remove(ctx, key)
}
