package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"communityprojects/internal/engine"
	"communityprojects/internal/handlers"
	"communityprojects/internal/indexer"
	"communityprojects/internal/middleware"
	"communityprojects/internal/node"
	"communityprojects/internal/routes"
	"communityprojects/pkg/chain"
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
	cfg := settings.EngineConfig()

	mem := chain.NewMemory(settings.ExistentialDeposit)
	if err := mem.Currency.Deposit(cfg.CustodyAccount, settings.CustodyBalance); err != nil {
		logrus.Fatal("Failed to fund custody account: ", err)
	}
	for _, a := range settings.DevAccounts {
		acc := chain.AccountID(a)
		mem.Whitelist.Add(acc)
		if err := mem.Assets.Mint(cfg.StableAsset, acc, settings.DevBalance); err != nil {
			logrus.Fatalf("Failed to mint stable for %s: %v", a, err)
		}
		if err := mem.Currency.Deposit(acc, settings.DevBalance); err != nil {
			logrus.Fatalf("Failed to deposit native for %s: %v", a, err)
		}
	}
	logrus.WithField("accounts", len(settings.DevAccounts)).Info("dev accounts funded")

	deps := engine.Deps{
		Journal:  mem.Journal,
		Identity: mem.Whitelist,
		Nfts:     mem.Nfts,
		Assets:   mem.Assets,
		Capital:  mem.Currency,
		Logger:   logrus.StandardLogger(),
	}

	// Database is optional; without it dead letters are only logged
	if config.DatabaseConfigured() {
		config.InitDB()
		config.ExecuteMigrations()
		deps.OnDeadLetter = indexer.DeadLetterLogger(config.DB, logrus.StandardLogger())
	} else {
		logrus.Info("Database not configured, dead letters will not be persisted")
	}

	eng := engine.New(cfg, deps)

	allowed := routes.AllowedOrigins()
	hub := indexer.NewHub(logrus.StandardLogger(), routes.CheckOrigin(allowed))
	sinks := []node.Sink{hub}

	if config.RabbitMQConfigured() {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()
		publisher, err := config.NewPublisher()
		if err != nil {
			logrus.Fatal("Failed to create publisher: ", err)
		}
		defer publisher.Close()
		sinks = append(sinks, indexer.NewQueueSink(publisher, settings.EventsQueue))
		logrus.Info("RabbitMQ initialized successfully")
	} else {
		logrus.Info("RabbitMQ not configured, events are only streamed over websocket")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := node.New(eng, logrus.StandardLogger(), sinks...)
	go n.Run(ctx)

	producer, err := n.StartBlockProducer(settings.BlockTime)
	if err != nil {
		logrus.Fatal("Failed to start block producer: ", err)
	}
	defer producer.Stop()

	r := routes.SetupRouter(handlers.NewHandler(n), hub, middleware.RateLimiterConfig{
		RequestsPerSecond: settings.RateLimitRPS,
		Burst:             settings.RateLimitBurst,
	})
	srv := &http.Server{Addr: ":" + settings.Port, Handler: r}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":       settings.Port,
			"block_time": settings.BlockTime.String(),
		}).Info("community projects node started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Error("Server shutdown failed: ", err)
	}
}
