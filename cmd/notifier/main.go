package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/events"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const kafkaGroup = "notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.ForService(cfg.Env, "notifier")
	appLogger.Info("Starting notifier service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := events.LoggingHandler(appLogger)

	switch cfg.Events.Broker {
	case events.BrokerKafka:
		consumer := events.NewKafkaConsumer(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, kafkaGroup, appLogger)
		defer consumer.Close()
		go consumer.Run(ctx, handler)
	case events.BrokerNone:
		appLogger.Warn("Event broker disabled, nothing to listen to")
	default:
		consumer, err := events.NewConsumer(cfg.Events.NATSURL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create NATS consumer", err)
		}
		defer consumer.Close()

		if err := consumer.Subscribe(cfg.Events.Subject, handler); err != nil {
			appLogger.Fatalf(err, "Failed to subscribe to %s", cfg.Events.Subject)
		}
	}

	appLogger.Infof("Notifier listening for review events on %s broker", cfg.Events.Broker)

	<-ctx.Done()
	appLogger.Info("Shutting down notifier service...")
}
