package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"communityprojects/internal/indexer"
	"communityprojects/pkg/config"

	logrus "github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	settings, err := config.LoadSettings()
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}

	config.InitDB()

	// "rollback" undoes the last migration and "purge" drops undelivered
	// events before a full rebuild of the read model
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "rollback":
			config.RollbackMigration()
			return
		case "purge":
			config.InitRabbitMQ()
			defer config.RabbitMQ.Close()
			if err := config.PurgeQueue(settings.EventsQueue); err != nil {
				logrus.Fatal("Failed to purge queue: ", err)
			}
			return
		default:
			logrus.Fatalf("unknown command %q", os.Args[1])
		}
	}

	config.ExecuteMigrations()

	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	msgConsumer, err := config.NewConsumer(settings.EventsQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	projector := indexer.NewProjector(config.DB, logrus.StandardLogger())
	logrus.WithField("queue", settings.EventsQueue).Info("Projection worker started, waiting for events...")

	if err := msgConsumer.Consume(ctx, projector.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatal("Consumer stopped: ", err)
	}
	logrus.Info("Projection worker stopped")
}
