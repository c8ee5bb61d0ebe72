// Package events carries content change notifications between components, instances
// (through the Redis bridge) and browsers (through the SSE endpoint).
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic names a kind of change.
type Topic string

const (
	TopicAll Topic = "*"

	TopicServicesUpdated    Topic = "services.updated"
	TopicReviewsUpdated     Topic = "reviews.updated"
	TopicGalleryUpdated     Topic = "gallery.updated"
	TopicBlogUpdated        Topic = "blog.updated"
	TopicPricingUpdated     Topic = "pricing.updated"
	TopicContactsUpdated    Topic = "contacts.updated"
	TopicBrandingUpdated    Topic = "branding.updated"
	TopicSocialMediaUpdated Topic = "social-media.updated"
	TopicHeroImagesUpdated  Topic = "hero-images.updated"
	TopicBenefitsUpdated    Topic = "benefits.updated"
	TopicDiscountUpdated    Topic = "discount.updated"
	TopicOrderCreated       Topic = "orders.created"
	TopicOrderUpdated       Topic = "orders.updated"
	TopicPasswordChanged    Topic = "account.password-changed"
	TopicContentImported    Topic = "content.imported"

	// TopicKeyChanged is emitted by the cached store for every write; payload is the key.
	TopicKeyChanged Topic = "kv.changed"
)

// Internal reports whether the topic is plumbing that browsers never see.
func (t Topic) Internal() bool {
	return t == TopicKeyChanged
}

// Event is a single notification.
type Event struct {
	Topic   Topic     `json:"topic"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
	Origin  string    `json:"origin,omitempty"`
}

// New builds an event stamped with the current time.
func New(topic Topic, payload any) Event {
	return Event{Topic: topic, Payload: payload, At: time.Now().UTC()}
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event Event) error

// Publisher is the narrow dependency application services take.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BusConfig controls delivery.
type BusConfig struct {
	AsyncProcessing bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultBusConfig returns synchronous delivery with a couple of quick retries.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxRetries: 2,
		RetryDelay: 50 * time.Millisecond,
	}
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-memory pub/sub. Events published without an origin are stamped with the
// bus origin so bridges can tell local events from remote ones.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]subscription
	nextID   uint64
	origin   string
	logger   *zap.Logger
	config   BusConfig
}

// NewBus creates a bus with the default configuration.
func NewBus(logger *zap.Logger, origin string) *Bus {
	return NewBusWithConfig(logger, origin, DefaultBusConfig())
}

// NewBusWithConfig creates a bus with explicit delivery settings.
func NewBusWithConfig(logger *zap.Logger, origin string, config BusConfig) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Topic][]subscription),
		origin:   origin,
		logger:   logger,
		config:   config,
	}
}

// Origin identifies this process.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers handler for topic (TopicAll matches every topic). The returned func
// removes exactly this subscription.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})
	b.logger.Debug("event handler subscribed", zap.String("topic", string(topic)))

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}

// SubscriberCount returns the number of handlers registered for exactly topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

// Publish delivers event to topic subscribers and wildcard subscribers. Every handler
// runs even when an earlier one fails; the failures are joined into the returned error.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if event.Origin == "" {
		event.Origin = b.origin
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Topic])+len(b.handlers[TopicAll]))
	for _, sub := range b.handlers[event.Topic] {
		handlers = append(handlers, sub.handler)
	}
	if event.Topic != TopicAll {
		for _, sub := range b.handlers[TopicAll] {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}
	if b.config.AsyncProcessing {
		return b.publishAsync(ctx, event, handlers)
	}
	var errs []error
	for i, handler := range handlers {
		if err := b.execute(ctx, event, handler, i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) publishAsync(ctx context.Context, event Event, handlers []Handler) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))
	for i, handler := range handlers {
		wg.Add(1)
		go func(h Handler, idx int) {
			defer wg.Done()
			if err := b.execute(ctx, event, h, idx); err != nil {
				errCh <- err
			}
		}(handler, i)
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *Bus) execute(ctx context.Context, event Event, handler Handler, index int) error {
	var lastErr error
	for attempt := 0; attempt <= b.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(b.config.RetryDelay)
		}
		if lastErr = handler(ctx, event); lastErr == nil {
			return nil
		}
		b.logger.Warn("event handler failed",
			zap.String("topic", string(event.Topic)),
			zap.Int("handler", index),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return fmt.Errorf("events: handler %d for %s failed after %d attempts: %w", index, event.Topic, b.config.MaxRetries+1, lastErr)
}

// PublishAndForget publishes on a goroutine and only logs failures.
func (b *Bus) PublishAndForget(ctx context.Context, event Event) {
	go func() {
		if err := b.Publish(context.WithoutCancel(ctx), event); err != nil {
			b.logger.Error("event publish failed", zap.String("topic", string(event.Topic)), zap.Error(err))
		}
	}()
}

// Stream returns a channel receiving every event until ctx ends. Slow readers lose events
// rather than blocking publishers.
func (b *Bus) Stream(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	var mu sync.Mutex
	closed := false
	unsubscribe := b.Subscribe(TopicAll, func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- event:
		default:
			b.logger.Debug("event stream full, dropping event", zap.String("topic", string(event.Topic)))
		}
		return nil
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
