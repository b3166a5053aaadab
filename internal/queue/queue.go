package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher delivers stake events to downstream consumers.
//
//go:generate mockery --name=EventPublisher --output=../../tests/mocks --outpkg=mocks --filename=mock_event_publisher.go
type EventPublisher interface {
	PushStakeEvent(ctx context.Context, ev *types.StakeEvent) error
	Shutdown()
}

// QueueManager publishes stake events to a durable rabbitmq queue. Publishing is
// retried, which is safe because consumers deduplicate on the message id.
type QueueManager struct {
	cfg    *config.QueueConfig
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	qm := &QueueManager{
		cfg:    cfg,
		logger: logger.With(zap.String("queue", cfg.QueueName)),
	}

	if err := qm.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	return qm, nil
}

// connect must be called with mu held or before the manager is shared
func (qm *QueueManager) connect() error {
	conn, err := amqp.Dial(qm.cfg.AmqpURL())
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	_, err = ch.QueueDeclare(
		qm.cfg.QueueName,
		true,  // durable
		false, // auto delete
		false, // exclusive
		false, // no wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	qm.conn = conn
	qm.channel = ch
	qm.logger.Info("connected to queue")
	return nil
}

func (qm *QueueManager) PushStakeEvent(ctx context.Context, ev *types.StakeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal stake event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type.String(),
		Timestamp:    time.Unix(ev.Timestamp, 0),
		Body:         body,
	}

	err = retry.Do(
		func() error {
			return qm.publish(ctx, msg)
		},
		retry.Context(ctx),
		retry.Attempts(qm.cfg.MaxRetryAttempts),
		retry.Delay(qm.cfg.RetryInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			qm.logger.Warn("failed to publish stake event, retrying",
				zap.String("event_id", ev.ID),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		metrics.RecordQueueSendError()
		qm.logger.Error("failed to publish stake event",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.Type.String()),
			zap.Error(err),
		)
		return err
	}

	qm.logger.Debug("stake event published",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type.String()),
	)
	return nil
}

func (qm *QueueManager) publish(ctx context.Context, msg amqp.Publishing) error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn == nil || qm.conn.IsClosed() || qm.channel == nil || qm.channel.IsClosed() {
		qm.closeLocked()
		if err := qm.connect(); err != nil {
			return fmt.Errorf("failed to reconnect to queue: %w", err)
		}
	}

	return qm.channel.PublishWithContext(ctx, "", qm.cfg.QueueName, false, false, msg)
}

func (qm *QueueManager) closeLocked() {
	if qm.channel != nil {
		_ = qm.channel.Close()
		qm.channel = nil
	}
	if qm.conn != nil {
		_ = qm.conn.Close()
		qm.conn = nil
	}
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	qm.logger.Info("shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.closeLocked()
}

// NoopPublisher is used when no queue is configured, events then only reach the db event log.
type NoopPublisher struct{}

func (NoopPublisher) PushStakeEvent(context.Context, *types.StakeEvent) error {
	return nil
}

func (NoopPublisher) Shutdown() {}
