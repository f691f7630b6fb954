package queue

import (
	"context"
	"fmt"
	"io"

	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Stamper applies a watermark to a PDF stream.
type Stamper interface {
	Stamp(rs io.ReadSeeker, w io.Writer, phrase string, mode models.WatermarkMode) error
}

// JobStorage holds job inputs, results and job state.
type JobStorage interface {
	Download(ctx context.Context, key string) ([]byte, error)
	SaveResult(ctx context.Context, data []byte, filename string) (string, error)
	SaveJob(ctx context.Context, job *models.WatermarkJob) error
	Delete(ctx context.Context, key string) error
}

type QueueService struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *zap.Logger
	queueName   string
	maxFileSize int64
	processor   Stamper
	storage     JobStorage
}

func NewQueueService(
	rabbitmqURL string,
	queueName string,
	maxFileSize int64,
	processor Stamper,
	storage JobStorage,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// one unacked message per consumer
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:        conn,
		channel:     channel,
		logger:      logger,
		queueName:   queueName,
		maxFileSize: maxFileSize,
		processor:   processor,
		storage:     storage,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
