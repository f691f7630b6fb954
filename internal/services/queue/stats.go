package queue

import (
	"fmt"

	"github.com/phambaophuc/pdf-watermark/internal/models"
)

// Stats reports the backlog of the watermark queue.
func (q *QueueService) Stats() (*models.QueueStats, error) {
	if q.channel == nil {
		return nil, fmt.Errorf("queue channel not available")
	}

	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	return &models.QueueStats{
		Queue:     info.Name,
		Pending:   info.Messages,
		Consumers: info.Consumers,
	}, nil
}

// HealthCheck reports whether the RabbitMQ connection is usable.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
