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

// Singleton is a document stored under one fixed key and overwritten wholesale.
type Singleton[T any] struct {
	store     kv.Store
	publisher events.Publisher
	logger    *zap.Logger
	key       string
	topic     events.Topic
	fallback  func() T
	normalize func(T) (T, error)
}

// Key returns the store key of the document.
func (s *Singleton[T]) Key() string {
	return s.key
}

// Get returns the stored document, or the built-in default when it is missing or the
// read fails. It never fails.
func (s *Singleton[T]) Get(ctx context.Context) T {
	value, ok, err := s.Stored(ctx)
	if err != nil {
		s.logger.Warn("singleton unavailable, serving defaults", zap.String("key", s.key), zap.Error(err))
		return s.fallback()
	}
	if !ok {
		return s.fallback()
	}
	return value
}

// Stored returns the document only if one was saved.
func (s *Singleton[T]) Stored(ctx context.Context) (T, bool, error) {
	var value T
	err := kv.GetJSON(ctx, s.store, s.key, &value)
	if errors.Is(err, kv.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Save validates and overwrites the document.
func (s *Singleton[T]) Save(ctx context.Context, value T) (T, error) {
	if s.normalize != nil {
		normalized, err := s.normalize(value)
		if err != nil {
			var zero T
			return zero, invalid(err)
		}
		value = normalized
	}
	if err := kv.SetJSON(ctx, s.store, s.key, value); err != nil {
		var zero T
		return zero, err
	}
	publish(ctx, s.publisher, s.logger, s.topic, s.key)
	return value, nil
}

// SiteSettings bundles the singleton documents of the site.
type SiteSettings struct {
	Contacts    *Singleton[domain.Contacts]
	Branding    *Singleton[domain.Branding]
	SocialMedia *Singleton[domain.SocialMedia]
	HeroImages  *Singleton[domain.HeroImages]
	Benefits    *Singleton[domain.Benefits]
	Discount    *Singleton[domain.Discount]
}

// NewSiteSettings wires every singleton to its key, topic and defaults.
func NewSiteSettings(store kv.Store, publisher events.Publisher, logger *zap.Logger) *SiteSettings {
	logger = loggerOrNop(logger)
	return &SiteSettings{
		Contacts:    newSingleton(store, publisher, logger, kv.KeyContacts, events.TopicContactsUpdated, domain.DefaultContacts, normalizeContacts),
		Branding:    newSingleton(store, publisher, logger, kv.KeyBranding, events.TopicBrandingUpdated, domain.DefaultBranding, normalizeBranding),
		SocialMedia: newSingleton(store, publisher, logger, kv.KeySocialMedia, events.TopicSocialMediaUpdated, domain.DefaultSocialMedia, normalizeSocialMedia),
		HeroImages:  newSingleton(store, publisher, logger, kv.KeyHeroImages, events.TopicHeroImagesUpdated, domain.DefaultHeroImages, normalizeHeroImages),
		Benefits:    newSingleton(store, publisher, logger, kv.KeyBenefits, events.TopicBenefitsUpdated, domain.DefaultBenefits, normalizeBenefits),
		Discount:    newSingleton(store, publisher, logger, kv.KeyDiscount, events.TopicDiscountUpdated, domain.DefaultDiscount, normalizeDiscount),
	}
}

func newSingleton[T any](store kv.Store, publisher events.Publisher, logger *zap.Logger, key string, topic events.Topic, fallback func() T, normalize func(T) (T, error)) *Singleton[T] {
	return &Singleton[T]{
		store:     store,
		publisher: publisher,
		logger:    logger,
		key:       key,
		topic:     topic,
		fallback:  fallback,
		normalize: normalize,
	}
}

func normalizeContacts(c domain.Contacts) (domain.Contacts, error) {
	email, err := domain.NewEmail(c.Email)
	if err != nil {
		return c, err
	}
	phones := make([]string, 0, len(c.Phones))
	for _, phone := range domain.CleanStrings(c.Phones) {
		phones = append(phones, domain.NormalizePhone(phone))
	}
	mapURL, err := domain.NewURL("mapUrl", c.MapURL)
	if err != nil {
		return c, err
	}
	return domain.Contacts{
		Phone:        domain.NormalizePhone(c.Phone),
		Phones:       phones,
		Email:        email,
		Address:      strings.TrimSpace(c.Address),
		WorkingHours: strings.TrimSpace(c.WorkingHours),
		MapURL:       mapURL,
	}, nil
}

func normalizeBranding(b domain.Branding) (domain.Branding, error) {
	name, err := domain.RequiredText("siteName", b.SiteName, MaxTitleRunes)
	if err != nil {
		return b, err
	}
	b.SiteName = name
	b.Tagline = strings.TrimSpace(b.Tagline)
	b.PrimaryColor = strings.TrimSpace(b.PrimaryColor)
	if b.LogoURL, err = domain.NewURL("logoUrl", b.LogoURL); err != nil {
		return b, err
	}
	if b.FaviconURL, err = domain.NewURL("faviconUrl", b.FaviconURL); err != nil {
		return b, err
	}
	return b, nil
}

func normalizeSocialMedia(s domain.SocialMedia) (domain.SocialMedia, error) {
	links := []*string{&s.Instagram, &s.Facebook, &s.Telegram, &s.Viber, &s.TikTok, &s.YouTube}
	for _, link := range links {
		*link = strings.TrimSpace(*link)
	}
	return s, nil
}

func normalizeHeroImages(h domain.HeroImages) (domain.HeroImages, error) {
	images := make([]domain.HeroImage, 0, len(h.Images))
	for i, image := range h.Images {
		url, err := domain.RequiredText("url", image.URL, 0)
		if err != nil {
			return h, fmt.Errorf("image %d: %v", i+1, err)
		}
		if image.ID == "" {
			image.ID = uuid.NewString()
		}
		image.URL = url
		image.Alt = strings.TrimSpace(image.Alt)
		images = append(images, image)
	}
	return domain.HeroImages{Images: images}, nil
}

func normalizeBenefits(b domain.Benefits) (domain.Benefits, error) {
	items := make([]domain.Benefit, 0, len(b.Items))
	for i, item := range b.Items {
		title, err := domain.RequiredText("title", item.Title, MaxTitleRunes)
		if err != nil {
			return b, fmt.Errorf("benefit %d: %v", i+1, err)
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.Title = title
		item.Description = strings.TrimSpace(item.Description)
		items = append(items, item)
	}
	return domain.Benefits{Title: strings.TrimSpace(b.Title), Items: items}, nil
}

func normalizeDiscount(d domain.Discount) (domain.Discount, error) {
	if d.Percent < 0 || d.Percent > 100 {
		return d, errors.New("percent must be between 0 and 100")
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.ValidUntil = strings.TrimSpace(d.ValidUntil)
	return d, nil
}
