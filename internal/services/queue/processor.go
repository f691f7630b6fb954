package queue

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/phambaophuc/pdf-watermark/pkg/utils"
	"go.uber.org/zap"
)

func (q *QueueService) processJob(ctx context.Context, job *models.WatermarkJob) (*models.ProcessedPDF, error) {
	input, err := q.loadInput(ctx, job)
	if err != nil {
		return nil, err
	}

	output := &bytes.Buffer{}
	if err := q.processor.Stamp(bytes.NewReader(input), output, job.Request.Phrase, job.Request.Mode); err != nil {
		return nil, fmt.Errorf("failed to watermark pdf: %w", err)
	}

	filename := utils.WatermarkedFilename(job.Filename)
	url, err := q.storage.SaveResult(ctx, output.Bytes(), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to save watermarked pdf: %w", err)
	}

	// the upload is only needed until the result exists
	if job.InputKey != "" {
		if err := q.storage.Delete(ctx, job.InputKey); err != nil {
			q.logger.Warn("Failed to remove job input",
				zap.String("job_id", job.ID),
				zap.String("key", job.InputKey),
				zap.Error(err))
		}
	}

	return &models.ProcessedPDF{
		ID:          job.ID,
		Filename:    filename,
		URL:         url,
		FileSize:    int64(output.Len()),
		ProcessedAt: time.Now(),
	}, nil
}

func (q *QueueService) loadInput(ctx context.Context, job *models.WatermarkJob) ([]byte, error) {
	switch {
	case job.InputKey != "":
		data, err := q.storage.Download(ctx, job.InputKey)
		if err != nil {
			return nil, fmt.Errorf("failed to download pdf: %w", err)
		}
		return data, nil
	case job.SourceURL != "":
		return utils.DownloadPDF(ctx, job.SourceURL, q.maxFileSize)
	default:
		return nil, fmt.Errorf("job has no input")
	}
}
