package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

// KafkaPublisher writes review events to a Kafka topic. Messages are keyed by
// product so events of one item stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *logger.Logger
}

// NewKafkaPublisher creates a publisher for topic. No connection is made until the first write.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log.WithFields(map[string]interface{}{
		"brokers": brokers,
		"topic":   topic,
	}).Info("Kafka publisher configured")

	return &KafkaPublisher{writer: writer, topic: topic, logger: log}
}

// Publish writes data to the topic. subject is carried as a header.
func (p *KafkaPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	message := kafka.Message{
		Key:     eventKey(data),
		Value:   data,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "subject", Value: []byte(subject)}},
	}

	err := p.writer.WriteMessages(ctx, message)
	metrics.RecordEventPublished(BrokerKafka, err)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"topic": p.topic,
		}).Error("Failed to write message to Kafka", err)
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Debugf("Published message to Kafka topic %s", p.topic)
	return nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaPublisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Warnf("Failed to close Kafka writer: %v", err)
		return
	}
	p.logger.Info("Kafka publisher closed")
}

// KafkaConsumer reads review events as a member of a Kafka consumer group
type KafkaConsumer struct {
	reader      *kafka.Reader
	retryDelays []time.Duration
	logger      *logger.Logger
}

// NewKafkaConsumer joins group on topic. Offsets are committed explicitly.
func NewKafkaConsumer(brokers []string, topic, group string, log *logger.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  fetchMaxWait,
	})

	log.WithFields(map[string]interface{}{
		"topic": topic,
		"group": group,
	}).Info("Kafka consumer configured")

	return &KafkaConsumer{
		reader:      reader,
		retryDelays: exponentialBackoff(MaxDeliveryAttempts),
		logger:      log,
	}
}

// Run handles messages until ctx is cancelled. A message is committed once handled
// or once MaxDeliveryAttempts attempts have failed, matching the JetStream consumer.
func (c *KafkaConsumer) Run(ctx context.Context, handler Handler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", err)
			select {
			case <-time.After(fetchRetry):
			case <-ctx.Done():
				return
			}
			continue
		}

		if !c.deliver(ctx, msg, handler) {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("Failed to commit Kafka offset", err)
		}
	}
}

// deliver calls handler with backoff between attempts. It reports false when ctx
// ended before the message was settled.
func (c *KafkaConsumer) deliver(ctx context.Context, msg kafka.Message, handler Handler) bool {
	for attempt := 0; ; attempt++ {
		err := handler(msg.Value)
		if err == nil {
			return true
		}

		if attempt >= len(c.retryDelays) {
			c.logger.WithFields(map[string]interface{}{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"attempts":  attempt + 1,
			}).Error("Dropping Kafka message after failed attempts", err)
			return true
		}

		c.logger.Warnf("Failed to handle Kafka message at offset %d, retrying: %v", msg.Offset, err)
		select {
		case <-time.After(c.retryDelays[attempt]):
		case <-ctx.Done():
			return false
		}
	}
}

// Close leaves the consumer group
func (c *KafkaConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warnf("Failed to close Kafka reader: %v", err)
	}
}

// eventKey extracts the product id of a review event; undecodable payloads get no key
func eventKey(data []byte) []byte {
	var event struct {
		ProductID string `json:"product_id"`
	}
	if err := json.Unmarshal(data, &event); err != nil || event.ProductID == "" {
		return nil
	}
	return []byte(event.ProductID)
}
