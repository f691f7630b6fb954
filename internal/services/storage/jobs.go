package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/redis/go-redis/v9"
)

const JobKeyPrefix = "watermark_job:"

var ErrJobNotFound = errors.New("job not found")

func jobKey(id string) string {
	return JobKeyPrefix + id
}

func (s *StorageService) SaveJob(ctx context.Context, job *models.WatermarkJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.redisClient.Set(ctx, jobKey(job.ID), data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.WatermarkJob, error) {
	data, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job get error: %w", err)
	}

	var job models.WatermarkJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
