package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge mirrors bus traffic over a Redis pub/sub channel so that several API
// instances invalidate caches and notify browsers together.
type RedisBridge struct {
	client  *redis.Client
	channel string
	bus     *Bus
	logger  *zap.Logger
}

// NewRedisBridge binds bus to channel.
func NewRedisBridge(client *redis.Client, channel string, bus *Bus, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{client: client, channel: channel, bus: bus, logger: logger}
}

// Run relays events until ctx is cancelled.
func (r *RedisBridge) Run(ctx context.Context) error {
	if r.client == nil || r.channel == "" {
		return errors.New("events: redis bridge needs a client and a channel")
	}

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	unsubscribe := r.bus.Subscribe(TopicAll, r.forward)
	defer unsubscribe()

	r.logger.Info("redis event bridge started", zap.String("channel", r.channel), zap.String("origin", r.bus.Origin()))
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

// forward publishes locally originated events to Redis.
func (r *RedisBridge) forward(ctx context.Context, event Event) error {
	if event.Origin != r.bus.Origin() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *RedisBridge) deliver(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.Warn("invalid bridged event", zap.Error(err))
		return
	}
	if event.Origin == "" || event.Origin == r.bus.Origin() {
		return
	}
	if err := r.bus.Publish(ctx, event); err != nil {
		r.logger.Warn("bridged event delivery failed", zap.String("topic", string(event.Topic)), zap.Error(err))
	}
}
