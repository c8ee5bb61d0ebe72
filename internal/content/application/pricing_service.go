package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pricingService struct {
	store     kv.Store
	publisher events.Publisher
	logger    *zap.Logger
}

func NewPricingService(store kv.Store, publisher events.Publisher, logger *zap.Logger) PricingService {
	return &pricingService{store: store, publisher: publisher, logger: loggerOrNop(logger)}
}

// Get falls back to the built-in price list when nothing usable is stored.
func (s *pricingService) Get(ctx context.Context) domain.Pricing {
	var pricing domain.Pricing
	err := kv.GetJSON(ctx, s.store, kv.KeyPricing, &pricing)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return domain.DefaultPricing()
	case err != nil:
		s.logger.Warn("pricing unavailable, serving defaults", zap.Error(err))
		return domain.DefaultPricing()
	case len(pricing.Categories) == 0:
		return domain.DefaultPricing()
	}
	return pricing
}

func (s *pricingService) Category(ctx context.Context, id string) (*domain.PricingCategory, error) {
	category, ok := s.Get(ctx).Category(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &category, nil
}

func (s *pricingService) Replace(ctx context.Context, pricing domain.Pricing) (domain.Pricing, error) {
	normalized := domain.Pricing{Categories: make([]domain.PricingCategory, 0, len(pricing.Categories))}
	seen := make(map[string]struct{}, len(pricing.Categories))
	for i, category := range pricing.Categories {
		cleaned, err := normalizeCategory(category.ID, category)
		if err != nil {
			return domain.Pricing{}, invalidf("category %d: %v", i+1, err)
		}
		if _, dup := seen[cleaned.ID]; dup {
			return domain.Pricing{}, invalidf("duplicate category id: %s", cleaned.ID)
		}
		seen[cleaned.ID] = struct{}{}
		normalized.Categories = append(normalized.Categories, cleaned)
	}
	if err := s.save(ctx, normalized); err != nil {
		return domain.Pricing{}, err
	}
	return normalized, nil
}

// UpsertCategory replaces the category with id, appending it when absent.
func (s *pricingService) UpsertCategory(ctx context.Context, id string, category domain.PricingCategory) (*domain.PricingCategory, error) {
	cleaned, err := normalizeCategory(id, category)
	if err != nil {
		return nil, invalid(err)
	}
	pricing := s.Get(ctx)
	replaced := false
	for i := range pricing.Categories {
		if pricing.Categories[i].ID == cleaned.ID {
			pricing.Categories[i] = cleaned
			replaced = true
			break
		}
	}
	if !replaced {
		pricing.Categories = append(pricing.Categories, cleaned)
	}
	if err := s.save(ctx, pricing); err != nil {
		return nil, err
	}
	return &cleaned, nil
}

func (s *pricingService) save(ctx context.Context, pricing domain.Pricing) error {
	if err := kv.SetJSON(ctx, s.store, kv.KeyPricing, pricing); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicPricingUpdated, len(pricing.Categories))
	return nil
}

func normalizeCategory(id string, category domain.PricingCategory) (domain.PricingCategory, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	title, err := domain.RequiredText("title", category.Title, MaxTitleRunes)
	if err != nil {
		return domain.PricingCategory{}, err
	}
	items := make([]domain.PriceItem, 0, len(category.Items))
	for i, item := range category.Items {
		name, err := domain.RequiredText("name", item.Name, MaxTitleRunes)
		if err != nil {
			return domain.PricingCategory{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		if item.Price < 0 {
			return domain.PricingCategory{}, fmt.Errorf("item %d: price must not be negative", i+1)
		}
		itemID := strings.TrimSpace(item.ID)
		if itemID == "" {
			itemID = uuid.NewString()
		}
		items = append(items, domain.PriceItem{
			ID:    itemID,
			Name:  name,
			Price: item.Price,
			Unit:  strings.TrimSpace(item.Unit),
		})
	}
	return domain.PricingCategory{ID: id, Title: title, Items: items}, nil
}

// FilterPriceItems keeps items whose name or unit contains keyword, case-insensitively.
func FilterPriceItems(items []domain.PriceItem, keyword string) []domain.PriceItem {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return items
	}
	filtered := make([]domain.PriceItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), keyword) || strings.Contains(strings.ToLower(item.Unit), keyword) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
