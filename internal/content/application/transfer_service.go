package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// ImportMode decides what happens to content missing from an imported snapshot.
type ImportMode string

const (
	// ImportOverwrite removes existing collection items and replaces every singleton
	// present in the snapshot.
	ImportOverwrite ImportMode = "overwrite"
	// ImportMerge upserts snapshot items by id and keeps everything else.
	ImportMerge ImportMode = "merge"
)

// ParseImportMode defaults to overwrite.
func ParseImportMode(value string) (ImportMode, error) {
	switch mode := ImportMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ImportOverwrite, nil
	case ImportOverwrite, ImportMerge:
		return mode, nil
	default:
		return "", invalidf("unknown import mode: %s", value)
	}
}

// Snapshot is the full content set. Singletons are nil when never saved.
type Snapshot struct {
	Version     int                  `json:"version"`
	ExportedAt  time.Time            `json:"exportedAt"`
	Services    []domain.Service     `json:"services,omitempty"`
	Reviews     []domain.Review      `json:"reviews"`
	Gallery     []domain.GalleryItem `json:"gallery"`
	Blog        []domain.BlogPost    `json:"blog"`
	Orders      []domain.Order       `json:"orders"`
	Contacts    *domain.Contacts     `json:"contacts,omitempty"`
	Branding    *domain.Branding     `json:"branding,omitempty"`
	SocialMedia *domain.SocialMedia  `json:"socialMedia,omitempty"`
	HeroImages  *domain.HeroImages   `json:"heroImages,omitempty"`
	Benefits    *domain.Benefits     `json:"benefits,omitempty"`
	Discount    *domain.Discount     `json:"discount,omitempty"`
	Pricing     *domain.Pricing      `json:"pricing,omitempty"`
}

// Counts reports items per content type.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		"services": len(s.Services),
		"reviews":  len(s.Reviews),
		"gallery":  len(s.Gallery),
		"blog":     len(s.Blog),
		"orders":   len(s.Orders),
	}
}

// ImportResult summarises an import.
type ImportResult struct {
	Mode       ImportMode     `json:"mode"`
	Imported   map[string]int `json:"imported"`
	Removed    int            `json:"removed"` // stored collection entries absent from the snapshot
	Singletons []string       `json:"singletons"`
}

type transferService struct {
	store     kv.Store
	settings  *SiteSettings
	publisher events.Publisher
	logger    *zap.Logger
}

func NewTransferService(store kv.Store, settings *SiteSettings, publisher events.Publisher, logger *zap.Logger) TransferService {
	return &transferService{store: store, settings: settings, publisher: publisher, logger: loggerOrNop(logger)}
}

func (s *transferService) Export(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{Version: SnapshotVersion, ExportedAt: now()}

	var err error
	if snapshot.Reviews, err = exportCollection[domain.Review](ctx, s.store, kv.PrefixReview); err != nil {
		return nil, err
	}
	if snapshot.Gallery, err = exportCollection[domain.GalleryItem](ctx, s.store, kv.PrefixGallery); err != nil {
		return nil, err
	}
	if snapshot.Blog, err = exportCollection[domain.BlogPost](ctx, s.store, kv.PrefixBlog); err != nil {
		return nil, err
	}
	if snapshot.Orders, err = exportCollection[domain.Order](ctx, s.store, kv.PrefixOrder); err != nil {
		return nil, err
	}

	var services []domain.Service
	if ok, err := exportSingleton(ctx, s.store, kv.KeyServices, &services); err != nil {
		return nil, err
	} else if ok {
		snapshot.Services = services
	}
	var pricing domain.Pricing
	if ok, err := exportSingleton(ctx, s.store, kv.KeyPricing, &pricing); err != nil {
		return nil, err
	} else if ok {
		snapshot.Pricing = &pricing
	}

	if snapshot.Contacts, err = storedPtr(ctx, s.settings.Contacts); err != nil {
		return nil, err
	}
	if snapshot.Branding, err = storedPtr(ctx, s.settings.Branding); err != nil {
		return nil, err
	}
	if snapshot.SocialMedia, err = storedPtr(ctx, s.settings.SocialMedia); err != nil {
		return nil, err
	}
	if snapshot.HeroImages, err = storedPtr(ctx, s.settings.HeroImages); err != nil {
		return nil, err
	}
	if snapshot.Benefits, err = storedPtr(ctx, s.settings.Benefits); err != nil {
		return nil, err
	}
	if snapshot.Discount, err = storedPtr(ctx, s.settings.Discount); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *transferService) Import(ctx context.Context, mode ImportMode, snapshot Snapshot) (*ImportResult, error) {
	if mode != ImportOverwrite && mode != ImportMerge {
		return nil, invalidf("unknown import mode: %s", mode)
	}
	result := &ImportResult{Mode: mode, Imported: map[string]int{}, Singletons: []string{}}

	entries, err := s.collectionEntries(snapshot, result)
	if err != nil {
		return nil, err
	}

	var stale []string
	if mode == ImportOverwrite {
		if stale, err = s.staleCollectionKeys(ctx, entries); err != nil {
			return nil, err
		}
	}
	// write before delete: a failed write leaves the old content in place
	if err := s.store.SetMany(ctx, entries); err != nil {
		return nil, fmt.Errorf("import collections: %w", err)
	}
	if err := s.store.DeleteMany(ctx, stale); err != nil {
		return nil, fmt.Errorf("clear collections: %w", err)
	}
	result.Removed = len(stale)

	singletons := make([]kv.Entry, 0, 8)
	steps := []struct {
		key     string
		present bool
		value   any
	}{
		{kv.KeyServices, snapshot.Services != nil, snapshot.Services},
		{kv.KeyPricing, snapshot.Pricing != nil, snapshot.Pricing},
		{kv.KeyContacts, snapshot.Contacts != nil, snapshot.Contacts},
		{kv.KeyBranding, snapshot.Branding != nil, snapshot.Branding},
		{kv.KeySocialMedia, snapshot.SocialMedia != nil, snapshot.SocialMedia},
		{kv.KeyHeroImages, snapshot.HeroImages != nil, snapshot.HeroImages},
		{kv.KeyBenefits, snapshot.Benefits != nil, snapshot.Benefits},
		{kv.KeyDiscount, snapshot.Discount != nil, snapshot.Discount},
	}
	for _, step := range steps {
		if !step.present {
			continue
		}
		raw, err := json.Marshal(step.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", step.key, err)
		}
		singletons = append(singletons, kv.Entry{Key: step.key, Value: raw})
		result.Singletons = append(result.Singletons, step.key)
	}
	if err := s.store.SetMany(ctx, singletons); err != nil {
		return nil, fmt.Errorf("import singletons: %w", err)
	}
	result.Imported["services"] = len(snapshot.Services)

	s.logger.Info("content imported",
		zap.String("mode", string(mode)),
		zap.Any("imported", result.Imported),
		zap.Int("removed", result.Removed),
		zap.Strings("singletons", result.Singletons))
	publish(ctx, s.publisher, s.logger, events.TopicContentImported, result)
	return result, nil
}

func (s *transferService) collectionEntries(snapshot Snapshot, result *ImportResult) ([]kv.Entry, error) {
	for i := range snapshot.Reviews {
		ensureID(&snapshot.Reviews[i].ID)
		if snapshot.Reviews[i].Rating < domain.MinRating || snapshot.Reviews[i].Rating > domain.MaxRating {
			return nil, invalidf("review %s: rating out of range", snapshot.Reviews[i].ID)
		}
	}
	for i := range snapshot.Gallery {
		ensureID(&snapshot.Gallery[i].ID)
	}
	for i := range snapshot.Blog {
		ensureID(&snapshot.Blog[i].ID)
	}
	for i := range snapshot.Orders {
		ensureID(&snapshot.Orders[i].ID)
		if snapshot.Orders[i].Status == "" {
			snapshot.Orders[i].Status = domain.OrderStatusNew
		}
	}

	entries := make([]kv.Entry, 0)
	reviews, err := kv.Entries(kv.PrefixReview, snapshot.Reviews, func(r domain.Review) string { return r.ID })
	if err != nil {
		return nil, err
	}
	gallery, err := kv.Entries(kv.PrefixGallery, snapshot.Gallery, func(g domain.GalleryItem) string { return g.ID })
	if err != nil {
		return nil, err
	}
	blog, err := kv.Entries(kv.PrefixBlog, snapshot.Blog, func(b domain.BlogPost) string { return b.ID })
	if err != nil {
		return nil, err
	}
	orders, err := kv.Entries(kv.PrefixOrder, snapshot.Orders, func(o domain.Order) string { return o.ID })
	if err != nil {
		return nil, err
	}
	result.Imported["reviews"] = len(reviews)
	result.Imported["gallery"] = len(gallery)
	result.Imported["blog"] = len(blog)
	result.Imported["orders"] = len(orders)

	entries = append(entries, reviews...)
	entries = append(entries, gallery...)
	entries = append(entries, blog...)
	entries = append(entries, orders...)
	return entries, nil
}

// staleCollectionKeys lists stored collection keys the incoming entries do not replace.
func (s *transferService) staleCollectionKeys(ctx context.Context, incoming []kv.Entry) ([]string, error) {
	keep := make(map[string]struct{}, len(incoming))
	for _, entry := range incoming {
		keep[entry.Key] = struct{}{}
	}
	keys := make([]string, 0)
	for _, prefix := range []string{kv.PrefixReview, kv.PrefixGallery, kv.PrefixBlog, kv.PrefixOrder} {
		existing, err := s.store.GetByPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, entry := range existing {
			if _, ok := keep[entry.Key]; !ok {
				keys = append(keys, entry.Key)
			}
		}
	}
	return keys, nil
}

func exportCollection[T any](ctx context.Context, store kv.Store, prefix string) ([]T, error) {
	items, _, err := kv.ListJSON[T](ctx, store, prefix)
	return items, err
}

func exportSingleton(ctx context.Context, store kv.Store, key string, dst any) (bool, error) {
	err := kv.GetJSON(ctx, store, key, dst)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func storedPtr[T any](ctx context.Context, singleton *Singleton[T]) (*T, error) {
	value, ok, err := singleton.Stored(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &value, nil
}

func ensureID(id *string) {
	if strings.TrimSpace(*id) == "" {
		*id = uuid.NewString()
	}
}
