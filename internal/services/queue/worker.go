package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// StartWorkers starts n consumers on the watermark queue.
func (q *QueueService) StartWorkers(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		if err := q.StartWorker(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.WatermarkJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.ID == "" {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.String("mode", job.Request.Mode.String()),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing
	q.storeJob(ctx, &job)

	result, err := q.processJob(ctx, &job)
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		job.Result = result
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID))
	}

	// The final state is stored before the ack so a crash in between leads
	// to redelivery instead of a job stuck in processing. Stamping is
	// deterministic, so failed jobs are acked too.
	q.storeJob(ctx, &job)

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (q *QueueService) storeJob(ctx context.Context, job *models.WatermarkJob) {
	job.UpdatedAt = time.Now()
	if err := q.storage.SaveJob(ctx, job); err != nil {
		q.logger.Warn("Failed to store job state",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
