package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	appfulfillment "github.com/wms/backend/internal/application/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Consumer feeds orders from the upstream order source into the fulfillment
// queue over AMQP. Enqueueing is idempotent on order number, so redeliveries
// after a missed ack are harmless.
type Consumer struct {
	cfg     config.IntakeConfig
	queue   *appfulfillment.QueueService
	logger  *zap.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewConsumer connects to the broker and declares the inbound queue
func NewConsumer(cfg config.IntakeConfig, queue *appfulfillment.QueueService, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		cfg:     cfg,
		queue:   queue,
		logger:  logger,
		conn:    conn,
		channel: channel,
	}, nil
}

// Start consumes until ctx is cancelled or the delivery channel closes
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", c.cfg.Queue, err)
	}

	c.logger.Info("order intake started", zap.String("queue", c.cfg.Queue))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					c.logger.Warn("order intake delivery channel closed")
					return
				}
				c.handle(ctx, delivery)
			}
		}
	}()

	return nil
}

// handle decides the fate of one delivery. Malformed or domain-rejected
// messages are dropped after logging: requeueing them would loop forever.
// Everything else (database down, timeouts) is requeued for a later attempt.
func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var req appfulfillment.EnqueueOrderRequest
	if err := json.Unmarshal(delivery.Body, &req); err != nil {
		c.logger.Error("dropping malformed order message", zap.Error(err))
		_ = delivery.Nack(false, false)
		return
	}

	if _, err := c.queue.EnqueueOrder(ctx, req); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			c.logger.Error("dropping rejected order message",
				zap.String("order_number", req.OrderNumber),
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
			_ = delivery.Nack(false, false)
			return
		}

		c.logger.Warn("requeueing order message after transient failure",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err),
		)
		_ = delivery.Nack(false, true)
		return
	}

	c.logger.Info("order enqueued from intake",
		zap.String("order_number", req.OrderNumber),
	)
	_ = delivery.Ack(false)
}

// Close closes the channel and connection
func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
