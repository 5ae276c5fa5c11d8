package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
	fetchRetry   = 5 * time.Second
)

// Handler processes one event payload
type Handler func(data []byte) error

// Consumer receives review events over core NATS
type Consumer struct {
	nc     *nats.Conn
	logger *logger.Logger
	sub    *nats.Subscription
}

// NewConsumer connects to NATS at url
func NewConsumer(url string, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Infof("Connected to NATS at %s", url)

	return &Consumer{
		nc:     nc,
		logger: log,
	}, nil
}

// Subscribe subscribes to a NATS subject and processes messages
func (c *Consumer) Subscribe(subject string, handler Handler) error {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		c.logger.Debugf("Received message on subject %s", subject)

		if err := handler(msg.Data); err != nil {
			c.logger.Errorf(err, "Failed to handle message on subject %s", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	c.sub = sub
	c.logger.Infof("Subscribed to NATS subject: %s", subject)
	return nil
}

// Close closes the NATS connection
func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from NATS: %v", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// PullConsumer fetches batches from the durable rating worker consumer
type PullConsumer struct {
	sub    *nats.Subscription
	logger *logger.Logger
}

// NewPullConsumer binds to the durable consumer of subject
func NewPullConsumer(js nats.JetStreamContext, subject string, log *logger.Logger) (*PullConsumer, error) {
	sub, err := js.PullSubscribe(subject, ConsumerName, nats.ManualAck())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to JetStream consumer: %w", err)
	}

	log.WithFields(map[string]any{
		"stream":   StreamName,
		"consumer": ConsumerName,
	}).Info("Subscribed to JetStream consumer")

	return &PullConsumer{sub: sub, logger: log}, nil
}

// Run fetches and dispatches messages until ctx is cancelled. Handled messages are
// acked; failed ones are nacked for redelivery with backoff.
func (c *PullConsumer) Run(ctx context.Context, handler Handler) {
	for ctx.Err() == nil {
		msgs, err := c.sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.logger.Error("Failed to fetch messages from JetStream", err)
			select {
			case <-time.After(fetchRetry):
			case <-ctx.Done():
			}
			continue
		}

		for _, msg := range msgs {
			if err := handler(msg.Data); err != nil {
				c.logger.Error("Failed to handle event", err)
				if nakErr := msg.Nak(); nakErr != nil {
					c.logger.Error("Failed to NACK message", nakErr)
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				c.logger.Error("Failed to ACK message", ackErr)
			}
		}
	}
}

// Close drops the pull subscription; the durable consumer keeps its position
func (c *PullConsumer) Close() {
	if err := c.sub.Unsubscribe(); err != nil {
		c.logger.Warnf("Failed to unsubscribe from JetStream: %v", err)
	}
}

// LoggingHandler logs every review event it receives
func LoggingHandler(log *logger.Logger) Handler {
	return func(data []byte) error {
		var event domain.ReviewEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Error("Failed to unmarshal event", err)
			return err
		}

		log.WithFields(map[string]any{
			"event_type": event.EventType,
			"review_id":  event.ReviewID,
			"product_id": event.ProductID,
			"status":     event.Status,
			"rating":     event.Rating,
			"timestamp":  event.Timestamp,
		}).Info("Received review event")
		return nil
	}
}
