package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/chystahata/site/api/internal/config"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/infrastructure/backend"
	"github.com/chystahata/site/api/internal/infrastructure/cloudinary"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/chystahata/site/api/internal/logging"
	"github.com/chystahata/site/api/internal/notify"
	"github.com/chystahata/site/api/internal/server"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	cfg.ServerLog = logger

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opened, err := backend.Open(ctx, cfg, logger.Named("kv"))
	if err != nil {
		return err
	}

	bus := events.NewBus(logger.Named("events"), uuid.NewString())
	store := kv.NewCachedStore(opened.Store, bus, cfg.CacheTTL)
	closers := append([]func(context.Context) error{func(context.Context) error {
		cancel()
		store.Close()
		return nil
	}}, opened.Closers()...)

	if cfg.RedisEventsChannel != "" {
		client := opened.Redis
		if client == nil {
			client = backend.NewRedisClient(cfg)
			closers = append(closers, func(context.Context) error { return client.Close() })
		}
		bridge := events.NewRedisBridge(client, cfg.RedisEventsChannel, bus, logger.Named("bridge"))
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("redis event bridge stopped", zap.Error(err))
			}
		}()
	}

	messenger := notify.NewMessenger(notify.Config{
		Endpoint:    cfg.MessengerEndpoint,
		Destination: cfg.MessengerDestination,
		Recipient:   cfg.MessengerRecipient,
		HTTPClient:  &http.Client{Timeout: cfg.MessengerTimeout},
		Store:       store,
		Logger:      logger.Named("notify"),
	})
	if !messenger.Enabled() {
		logger.Info("MESSENGER_GATEWAY_URL not set, admin notifications are disabled")
	}

	deps := server.Deps{
		Store:    store,
		Bus:      bus,
		Notifier: messenger,
		Closers:  closers,
	}
	if cfg.CloudinaryURL != "" {
		uploader, err := cloudinary.NewUploader(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			return err
		}
		deps.Uploader = uploader
	} else {
		logger.Info("CLOUDINARY_URL not set, media uploads are disabled")
	}

	app, err := server.New(cfg, deps)
	if err != nil {
		return err
	}
	return app.Run()
}
