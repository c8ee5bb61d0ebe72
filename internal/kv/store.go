// Package kv defines the document key-value store every content type is persisted in.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Singleton document keys.
const (
	KeyServices      = "services"
	KeyContacts      = "contacts"
	KeyBranding      = "branding"
	KeySocialMedia   = "social_media"
	KeyHeroImages    = "hero_images"
	KeyBenefits      = "benefits"
	KeyDiscount      = "discount"
	KeyPricing       = "pricing"
	KeyAdminPassword = "admin_password"
)

// Collection key prefixes. Items live under prefix + id.
const (
	PrefixReview             = "review:"
	PrefixGallery            = "gallery:"
	PrefixBlog               = "blog:"
	PrefixOrder              = "order:"
	PrefixFailedNotification = "failed_notification:"
)

// Entry is a single stored key with its raw JSON value.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Store is the port every driver implements. Values are opaque JSON documents.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	// GetByPrefix returns every entry whose key starts with prefix, sorted by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	SetMany(ctx context.Context, entries []Entry) error
	DeleteMany(ctx context.Context, keys []string) error
	Ping(ctx context.Context) error
}

// GetJSON loads key into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// ListJSON decodes every entry under prefix. Entries that fail to decode are skipped and
// reported through the returned count.
func ListJSON[T any](ctx context.Context, s Store, prefix string) ([]T, int, error) {
	entries, err := s.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, 0, err
	}
	items := make([]T, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		var item T
		if err := json.Unmarshal(entry.Value, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// Entries encodes values into entries keyed by prefix + keyOf(value).
func Entries[T any](prefix string, values []T, keyOf func(T) string) ([]Entry, error) {
	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("kv: encode %s entry: %w", prefix, err)
		}
		entries = append(entries, Entry{Key: prefix + keyOf(value), Value: raw})
	}
	return entries, nil
}
