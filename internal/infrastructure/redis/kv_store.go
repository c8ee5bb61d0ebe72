package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chystahata/site/api/internal/kv"
	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 200

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient builds a go-redis client with the pool settings the API uses.
func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// KVStore implements kv.Store with plain Redis string values. Every key is namespaced
// by prefix so the database can be shared.
type KVStore struct {
	client *goredis.Client
	prefix string
}

// NewKVStore wraps client.
func NewKVStore(client *goredis.Client, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(value), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("redis kv: value for %s is not valid JSON", key)
	}
	return s.client.Set(ctx, s.prefix+key, []byte(value), 0).Err()
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// GetByPrefix walks matching keys with SCAN and fetches them with one MGET.
func (s *KVStore) GetByPrefix(ctx context.Context, prefix string) ([]kv.Entry, error) {
	pattern := escapeGlob(s.prefix+prefix) + "*"
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	keys = uniqueSorted(keys)
	if len(keys) == 0 {
		return []kv.Entry{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]kv.Entry, 0, len(keys))
	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		entries = append(entries, kv.Entry{
			Key:   strings.TrimPrefix(keys[i], s.prefix),
			Value: json.RawMessage(str),
		})
	}
	return entries, nil
}

func (s *KVStore) SetMany(ctx context.Context, entries []kv.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, entry := range entries {
			if !json.Valid(entry.Value) {
				return fmt.Errorf("redis kv: value for %s is not valid JSON", entry.Key)
			}
			pipe.Set(ctx, s.prefix+entry.Key, []byte(entry.Value), 0)
		}
		return nil
	})
	return err
}

func (s *KVStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.prefix+key)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// uniqueSorted drops repeats; SCAN may return a key more than once while the keyspace
// is being rehashed.
func uniqueSorted(keys []string) []string {
	sort.Strings(keys)
	out := keys[:0]
	for _, key := range keys {
		if len(out) > 0 && out[len(out)-1] == key {
			continue
		}
		out = append(out, key)
	}
	return out
}

func escapeGlob(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(value)
}
