package events

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding review events
	StreamName = "REVIEWS"

	// ConsumerName is the durable consumer (and Kafka group) of the rating worker
	ConsumerName = "rating-worker"

	// MaxDeliveryAttempts bounds redeliveries. A dropped event is repaired by the
	// next event for the item or by the scheduled reconciliation.
	MaxDeliveryAttempts = 3

	// AckWait is how long a fetched event may stay unacknowledged
	AckWait = 30 * time.Second

	streamMaxAge = 24 * time.Hour
)

// Provisioner makes sure the review stream and the rating worker consumer exist
type Provisioner struct {
	js      nats.JetStreamContext
	subject string
	logger  *logger.Logger
}

// NewProvisioner creates a provisioner for events published on subject
func NewProvisioner(js nats.JetStreamContext, subject string, log *logger.Logger) *Provisioner {
	return &Provisioner{js: js, subject: subject, logger: log.With("stream", StreamName)}
}

// exponentialBackoff returns the redelivery schedule 1s, 2s, 4s, ...
// N attempts need N-1 delays since the first delivery is immediate.
func exponentialBackoff(attempts int) []time.Duration {
	if attempts <= 1 {
		return nil
	}

	delays := make([]time.Duration, attempts-1)
	for i := range delays {
		delays[i] = time.Duration(1<<i) * time.Second
	}
	return delays
}

func streamConfig(subject string) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{subject},
		Retention:   nats.WorkQueuePolicy,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      streamMaxAge,
		Discard:     nats.DiscardOld,
		Description: "Review lifecycle events for rating recomputation",
	}
}

func consumerConfig(subject string) *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       ConsumerName,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: subject,
		BackOff:       exponentialBackoff(MaxDeliveryAttempts),
		Description:   "Rating worker consumer for review events",
	}
}

// Ensure provisions the stream, then the consumer
func (p *Provisioner) Ensure() error {
	if err := p.ensureStream(); err != nil {
		return err
	}
	return p.ensureConsumer()
}

// ensureStream creates the stream, or adds the subject to an existing stream that lacks it
func (p *Provisioner) ensureStream() error {
	info, err := p.js.StreamInfo(StreamName)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, err := p.js.AddStream(streamConfig(p.subject)); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
		}
		p.logger.Infof("Created JetStream stream for %s", p.subject)
		return nil
	case err != nil:
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	if !slices.Contains(info.Config.Subjects, p.subject) {
		cfg := info.Config
		cfg.Subjects = append(cfg.Subjects, p.subject)
		if _, err := p.js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("failed to add subject %s to stream: %w", p.subject, err)
		}
		p.logger.Warnf("Added subject %s to existing stream", p.subject)
	}

	p.logger.WithFields(map[string]any{
		"messages": info.State.Msgs,
		"bytes":    info.State.Bytes,
	}).Info("JetStream stream ready")
	return nil
}

func (p *Provisioner) ensureConsumer() error {
	info, err := p.js.ConsumerInfo(StreamName, ConsumerName)
	switch {
	case errors.Is(err, nats.ErrConsumerNotFound):
		if _, err := p.js.AddConsumer(StreamName, consumerConfig(p.subject)); err != nil {
			return fmt.Errorf("failed to create consumer %s: %w", ConsumerName, err)
		}
		p.logger.Infof("Created durable consumer %s", ConsumerName)
		return nil
	case err != nil:
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	p.logger.WithFields(map[string]any{
		"consumer":    info.Name,
		"pending":     info.NumPending,
		"redelivered": info.NumRedelivered,
		"ack_pending": info.NumAckPending,
	}).Info("JetStream consumer ready")
	return nil
}
