package application

import (
	"context"
	"strings"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type galleryService struct {
	items     collection[domain.GalleryItem]
	publisher events.Publisher
	logger    *zap.Logger
}

func NewGalleryService(store kv.Store, publisher events.Publisher, logger *zap.Logger) GalleryService {
	logger = loggerOrNop(logger)
	return &galleryService{
		items:     collection[domain.GalleryItem]{store: store, prefix: kv.PrefixGallery, logger: logger},
		publisher: publisher,
		logger:    logger,
	}
}

// List returns items newest first, optionally restricted to one type.
func (s *galleryService) List(ctx context.Context, itemType string) ([]domain.GalleryItem, error) {
	items, err := s.items.list(ctx)
	if err != nil {
		return nil, err
	}
	if itemType = strings.ToLower(strings.TrimSpace(itemType)); itemType != "" {
		filtered := items[:0]
		for _, item := range items {
			if item.Type == itemType {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	sortNewestFirst(items,
		func(i domain.GalleryItem) time.Time { return i.CreatedAt },
		func(i domain.GalleryItem) string { return i.ID })
	return items, nil
}

func (s *galleryService) Create(ctx context.Context, cmd CreateGalleryItemCommand) (*domain.GalleryItem, error) {
	url, err := domain.RequiredText("url", cmd.URL, 0)
	if err != nil {
		return nil, invalid(err)
	}
	itemType, err := domain.NewGalleryType(cmd.Type)
	if err != nil {
		return nil, invalid(err)
	}
	description, err := domain.OptionalText("description", cmd.Description, MaxShortTextRunes)
	if err != nil {
		return nil, invalid(err)
	}

	item := domain.GalleryItem{
		ID:          uuid.NewString(),
		URL:         url,
		Type:        itemType,
		Description: description,
		CreatedAt:   now(),
	}
	if itemType == domain.GalleryTypeVideo {
		info := domain.ParseVideoURL(url)
		item.Video = &info
	}
	if err := s.items.put(ctx, item.ID, item); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicGalleryUpdated, item.ID)
	return &item, nil
}

func (s *galleryService) Delete(ctx context.Context, id string) error {
	if err := s.items.remove(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicGalleryUpdated, id)
	return nil
}
