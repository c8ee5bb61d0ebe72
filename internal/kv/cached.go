package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chystahata/site/api/internal/events"
)

// EventBus is the part of events.Bus the cache needs.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Subscribe(topic events.Topic, handler events.Handler) func()
}

type cachedValue struct {
	value    json.RawMessage
	missing  bool
	expireAt time.Time
}

type cachedList struct {
	entries  []Entry
	expireAt time.Time
}

// CachedStore is a read-through cache in front of another Store. Writes go straight to
// the wrapped store and announce the key on the bus; every subscribed instance drops the
// key and any prefix listing that contains it.
type CachedStore struct {
	next  Store
	bus   EventBus
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	keys  map[string]cachedValue
	lists map[string]cachedList

	// Generations guard read-through fills against invalidations that land while the
	// backend read is in flight: a fill is dropped when its generation moved.
	keyGen  map[string]uint64
	listGen uint64
	epoch   uint64

	unsubscribe []func()
}

// NewCachedStore wraps next. A non-positive ttl disables expiry-based refresh but keeps
// event-based invalidation.
func NewCachedStore(next Store, bus EventBus, ttl time.Duration) *CachedStore {
	c := &CachedStore{
		next:  next,
		bus:   bus,
		ttl:   ttl,
		now:   time.Now,
		keys:   make(map[string]cachedValue),
		lists:  make(map[string]cachedList),
		keyGen: make(map[string]uint64),
	}
	if bus != nil {
		c.unsubscribe = append(c.unsubscribe,
			bus.Subscribe(events.TopicKeyChanged, c.onKeyChanged),
			bus.Subscribe(events.TopicContentImported, c.onFlush),
		)
	}
	return c
}

// Close detaches the cache from the bus.
func (c *CachedStore) Close() {
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
}

func (c *CachedStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	c.mu.RLock()
	cached, ok := c.keys[key]
	epoch, gen := c.epoch, c.keyGen[key]
	c.mu.RUnlock()
	if ok && c.fresh(cached.expireAt) {
		if cached.missing {
			return nil, ErrNotFound
		}
		return cloneRaw(cached.value), nil
	}

	value, err := c.next.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		c.storeKey(key, cachedValue{missing: true}, epoch, gen)
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	c.storeKey(key, cachedValue{value: cloneRaw(value)}, epoch, gen)
	return value, nil
}

func (c *CachedStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	c.mu.RLock()
	cached, ok := c.lists[prefix]
	epoch, gen := c.epoch, c.listGen
	c.mu.RUnlock()
	if ok && c.fresh(cached.expireAt) {
		return cloneEntries(cached.entries), nil
	}

	entries, err := c.next.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.epoch == epoch && c.listGen == gen {
		c.lists[prefix] = cachedList{entries: cloneEntries(entries), expireAt: c.expiry()}
	}
	c.mu.Unlock()
	return entries, nil
}

func (c *CachedStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		return err
	}
	c.changed(ctx, key)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	if err := c.next.Delete(ctx, key); err != nil {
		return err
	}
	c.changed(ctx, key)
	return nil
}

func (c *CachedStore) SetMany(ctx context.Context, entries []Entry) error {
	if err := c.next.SetMany(ctx, entries); err != nil {
		return err
	}
	for _, entry := range entries {
		c.changed(ctx, entry.Key)
	}
	return nil
}

func (c *CachedStore) DeleteMany(ctx context.Context, keys []string) error {
	if err := c.next.DeleteMany(ctx, keys); err != nil {
		return err
	}
	for _, key := range keys {
		c.changed(ctx, key)
	}
	return nil
}

func (c *CachedStore) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

// Invalidate drops key and every cached listing whose prefix matches it.
func (c *CachedStore) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	c.keyGen[key]++
	c.listGen++
	for prefix := range c.lists {
		if strings.HasPrefix(key, prefix) {
			delete(c.lists, prefix)
		}
	}
}

// Flush empties the cache.
func (c *CachedStore) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = make(map[string]cachedValue)
	c.lists = make(map[string]cachedList)
	c.keyGen = make(map[string]uint64)
	c.epoch++
}

func (c *CachedStore) changed(ctx context.Context, key string) {
	c.Invalidate(key)
	if c.bus != nil {
		// The write already succeeded; a failed announcement only delays remote invalidation
		// until TTL expiry.
		_ = c.bus.Publish(ctx, events.New(events.TopicKeyChanged, key))
	}
}

func (c *CachedStore) onKeyChanged(_ context.Context, event events.Event) error {
	if key, ok := event.Payload.(string); ok {
		c.Invalidate(key)
		return nil
	}
	c.Flush()
	return nil
}

func (c *CachedStore) onFlush(context.Context, events.Event) error {
	c.Flush()
	return nil
}

// storeKey caches value unless key was invalidated since epoch/gen were read.
func (c *CachedStore) storeKey(key string, value cachedValue, epoch, gen uint64) {
	value.expireAt = c.expiry()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.keyGen[key] != gen {
		return
	}
	c.keys[key] = value
}

func (c *CachedStore) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *CachedStore) fresh(expireAt time.Time) bool {
	return expireAt.IsZero() || c.now().Before(expireAt)
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = Entry{Key: entry.Key, Value: cloneRaw(entry.Value)}
	}
	return out
}
