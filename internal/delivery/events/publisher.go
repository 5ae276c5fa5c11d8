package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

const (
	BrokerNATS  = "nats"
	BrokerKafka = "kafka"
	BrokerNone  = "none"
)

// Publisher hands review events to a broker
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close()
}

// NewPublisher creates the publisher selected by cfg.Events.Broker
func NewPublisher(cfg *config.Config, log *logger.Logger) (Publisher, error) {
	switch cfg.Events.Broker {
	case BrokerNATS, "":
		pub, err := NewNATSPublisher(cfg.Events.NATSURL, log)
		if err != nil {
			return nil, err
		}
		// JetStream rejects publishes on subjects no stream captures
		if err := NewProvisioner(pub.js, cfg.Events.Subject, log).ensureStream(); err != nil {
			pub.Close()
			return nil, err
		}
		return pub, nil
	case BrokerKafka:
		return NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, log), nil
	case BrokerNone:
		log.Warn("Event broker disabled, review events will be dropped")
		return nopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown event broker %q", cfg.Events.Broker)
	}
}

// NATSPublisher publishes events to NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewNATSPublisher connects to NATS and creates a JetStream context
func NewNATSPublisher(url string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"url": url,
	}).Info("Connected to NATS JetStream")

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// Publish stores the message in the stream bound to subject and waits for the ack
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	pubAck, err := p.js.Publish(subject, data, nats.Context(ctx))
	metrics.RecordEventPublished(BrokerNATS, err)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"subject": subject,
		}).Error("Failed to publish message to JetStream", err)
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"stream":   pubAck.Stream,
		"sequence": pubAck.Sequence,
	}).Debug("Published message to JetStream")

	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, []byte) error { return nil }

func (nopPublisher) Close() {}
