// Package backend opens the kv.Store selected by KV_DRIVER.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/chystahata/site/api/internal/config"
	mongokv "github.com/chystahata/site/api/internal/infrastructure/mongo"
	rediskv "github.com/chystahata/site/api/internal/infrastructure/redis"
	"github.com/chystahata/site/api/internal/kv"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Backend is an opened store plus the connections behind it.
type Backend struct {
	Store kv.Store
	// Redis is set when the store runs on Redis, so the event bridge can share the client.
	Redis   *goredis.Client
	closers []func(context.Context) error
}

// Closers returns the shutdown steps of the connections, in order.
func (b *Backend) Closers() []func(context.Context) error {
	return append([]func(context.Context) error(nil), b.closers...)
}

// Close releases every connection.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects to the configured driver. An unreachable store is logged, not fatal:
// reads fall back to defaults until it comes up.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
		defer cancel()

		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err := mongo.Connect(connectCtx, clientOptions)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		store := mongokv.NewKVStore(client, cfg.MongoDatabase, cfg.KVCollection)
		if err := store.Ping(connectCtx); err != nil {
			logger.Warn("mongo not reachable yet", zap.Error(err))
		}
		logger.Info("kv store ready",
			zap.String("driver", config.DriverMongo),
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.KVCollection))
		return &Backend{Store: store, closers: []func(context.Context) error{store.Disconnect}}, nil

	case config.DriverRedis:
		client := NewRedisClient(cfg)
		store := rediskv.NewKVStore(client, cfg.RedisKeyPrefix)
		if err := store.Ping(ctx); err != nil {
			logger.Warn("redis not reachable yet", zap.Error(err))
		}
		logger.Info("kv store ready", zap.String("driver", config.DriverRedis), zap.String("addr", cfg.RedisAddr))
		return &Backend{
			Store:   store,
			Redis:   client,
			closers: []func(context.Context) error{func(context.Context) error { return client.Close() }},
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory kv store, content is lost on restart")
		return &Backend{Store: kv.NewMemoryStore()}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// NewRedisClient builds a client from the REDIS_* settings.
func NewRedisClient(cfg config.Config) *goredis.Client {
	return rediskv.NewClient(rediskv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
