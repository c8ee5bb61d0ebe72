// Package application holds the content use-cases shared by the public site and the admin
// console. Every service persists through kv.Store and announces successful writes on the
// event bus.
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/chystahata/site/api/internal/pagination"
	"go.uber.org/zap"
)

var (
	// ErrValidation wraps every input rejection; the message after the prefix is user-facing.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound is returned when an item id does not exist.
	ErrNotFound = errors.New("not found")
)

// Input limits.
const (
	MaxNameRunes        = 100
	MaxTitleRunes       = 200
	MaxShortTextRunes   = 500
	MaxReviewTextRunes  = 2000
	MaxMessageRunes     = 2000
	MaxBlogContentRunes = 100000
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ServiceCatalog manages the list of offered services.
type ServiceCatalog interface {
	List(ctx context.Context) []domain.Service
	Replace(ctx context.Context, cmds []ServiceCommand) ([]domain.Service, error)
	Update(ctx context.Context, id string, cmd ServiceCommand) (*domain.Service, error)
	Delete(ctx context.Context, id string) error
}

// ReviewService covers submission and moderation of reviews.
type ReviewService interface {
	ListApproved(ctx context.Context, limit int) ([]domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	Submit(ctx context.Context, cmd SubmitReviewCommand) (*domain.Review, error)
	SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
}

// GalleryService manages gallery items.
type GalleryService interface {
	List(ctx context.Context, itemType string) ([]domain.GalleryItem, error)
	Create(ctx context.Context, cmd CreateGalleryItemCommand) (*domain.GalleryItem, error)
	Delete(ctx context.Context, id string) error
}

// BlogService manages blog posts.
type BlogService interface {
	ListPublished(ctx context.Context) ([]BlogPostView, error)
	ListAll(ctx context.Context) ([]BlogPostView, error)
	GetPublished(ctx context.Context, id string) (*BlogPostView, error)
	Create(ctx context.Context, cmd UpsertBlogPostCommand) (*BlogPostView, error)
	Update(ctx context.Context, id string, cmd UpsertBlogPostCommand) (*BlogPostView, error)
	Delete(ctx context.Context, id string) error
}

// PricingService manages the price list.
type PricingService interface {
	Get(ctx context.Context) domain.Pricing
	Category(ctx context.Context, id string) (*domain.PricingCategory, error)
	Replace(ctx context.Context, pricing domain.Pricing) (domain.Pricing, error)
	UpsertCategory(ctx context.Context, id string, category domain.PricingCategory) (*domain.PricingCategory, error)
}

// OrderService covers order intake and processing.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, paging Paging) (pagination.Page[domain.Order], error)
	UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

// TransferService exports and imports the whole content set.
type TransferService interface {
	Export(ctx context.Context) (*Snapshot, error)
	Import(ctx context.Context, mode ImportMode, snapshot Snapshot) (*ImportResult, error)
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// OrderFilter expresses admin search criteria for orders.
type OrderFilter struct {
	Status  string
	Keyword string
}

// ServiceCommand contains inputs for a service entry.
type ServiceCommand struct {
	ID          string
	Title       string
	Description string
	Features    []string
	Icon        string
}

// SubmitReviewCommand contains inputs for a public review submission.
type SubmitReviewCommand struct {
	Name   string
	Text   string
	Rating int
	Image  string
}

// CreateGalleryItemCommand contains inputs for a gallery item.
type CreateGalleryItemCommand struct {
	URL         string
	Type        string
	Description string
}

// UpsertBlogPostCommand contains inputs for creating/updating blog posts.
type UpsertBlogPostCommand struct {
	Title     string
	Content   string
	Image     string
	Video     string
	Published bool
}

// CreateOrderCommand contains inputs from the contact form.
type CreateOrderCommand struct {
	Name    string
	Phone   string
	Email   string
	Service string
	Message string
}

// collection is the shared persistence of id-keyed items under one prefix.
type collection[T any] struct {
	store  kv.Store
	prefix string
	logger *zap.Logger
}

func (c collection[T]) list(ctx context.Context) ([]T, error) {
	items, skipped, err := kv.ListJSON[T](ctx, c.store, c.prefix)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Warn("skipped undecodable entries", zap.String("prefix", c.prefix), zap.Int("count", skipped))
	}
	return items, nil
}

func (c collection[T]) get(ctx context.Context, id string) (T, error) {
	var item T
	if id == "" {
		return item, ErrNotFound
	}
	err := kv.GetJSON(ctx, c.store, c.prefix+id, &item)
	if errors.Is(err, kv.ErrNotFound) {
		return item, ErrNotFound
	}
	return item, err
}

func (c collection[T]) put(ctx context.Context, id string, item T) error {
	return kv.SetJSON(ctx, c.store, c.prefix+id, item)
}

func (c collection[T]) remove(ctx context.Context, id string) error {
	if _, err := c.get(ctx, id); err != nil {
		return err
	}
	return c.store.Delete(ctx, c.prefix+id)
}

func publish(ctx context.Context, publisher events.Publisher, logger *zap.Logger, topic events.Topic, payload any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.New(topic, payload)); err != nil {
		logger.Warn("event publish failed", zap.String("topic", string(topic)), zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// sortNewestFirst orders by createdAt descending; ties fall back to id for a stable listing.
func sortNewestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := createdAt(items[i]), createdAt(items[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return id(items[i]) > id(items[j])
	})
}

func now() time.Time {
	return time.Now().UTC()
}
