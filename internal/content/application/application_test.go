package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []events.Topic
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, event.Topic)
	return nil
}

func (p *recordingPublisher) Topics() []events.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Topic(nil), p.topics...)
}

type failingStore struct {
	kv.Store
}

func (failingStore) Get(context.Context, string) (json.RawMessage, error) {
	return nil, errors.New("store down")
}

type failingBatchStore struct {
	*kv.MemoryStore
}

func (failingBatchStore) SetMany(context.Context, []kv.Entry) error {
	return errors.New("write rejected")
}

type ContentSuite struct {
	suite.Suite
	ctx       context.Context
	store     *kv.MemoryStore
	publisher *recordingPublisher
}

func (s *ContentSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = kv.NewMemoryStore()
	s.publisher = &recordingPublisher{}
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) TestReviewVisibility() {
	reviews := NewReviewService(s.store, s.publisher, nil)

	older, err := reviews.Submit(s.ctx, SubmitReviewCommand{Name: "Olena", Text: "Great", Rating: 5})
	s.Require().NoError(err)
	newer, err := reviews.Submit(s.ctx, SubmitReviewCommand{Name: "Petro", Text: "Good", Rating: 4})
	s.Require().NoError(err)
	s.False(older.Approved)

	// pin timestamps so ordering does not depend on clock resolution
	s.setReviewTime(older.ID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.setReviewTime(newer.ID, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	public, err := reviews.ListApproved(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(public)

	_, err = reviews.SetApproved(s.ctx, older.ID, true)
	s.Require().NoError(err)
	_, err = reviews.SetApproved(s.ctx, newer.ID, true)
	s.Require().NoError(err)

	public, err = reviews.ListApproved(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(public, 2)
	s.Equal(newer.ID, public[0].ID)
	s.Equal(older.ID, public[1].ID)

	limited, err := reviews.ListApproved(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	_, err = reviews.SetApproved(s.ctx, newer.ID, false)
	s.Require().NoError(err)
	public, err = reviews.ListApproved(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(public, 1)
	s.Equal(older.ID, public[0].ID)

	all, err := reviews.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Contains(s.publisher.Topics(), events.TopicReviewsUpdated)
}

func (s *ContentSuite) setReviewTime(id string, at time.Time) {
	var review domain.Review
	s.Require().NoError(kv.GetJSON(s.ctx, s.store, kv.PrefixReview+id, &review))
	review.CreatedAt = at
	s.Require().NoError(kv.SetJSON(s.ctx, s.store, kv.PrefixReview+id, review))
}

func (s *ContentSuite) TestReviewValidation() {
	reviews := NewReviewService(s.store, s.publisher, nil)
	cases := []SubmitReviewCommand{
		{Name: "", Text: "x", Rating: 5},
		{Name: "a", Text: " ", Rating: 5},
		{Name: "a", Text: "x", Rating: 0},
		{Name: "a", Text: "x", Rating: 6},
		{Name: "a", Text: "x", Rating: 3, Image: "javascript:alert(1)"},
	}
	for _, cmd := range cases {
		_, err := reviews.Submit(s.ctx, cmd)
		s.ErrorIs(err, ErrValidation)
	}
	s.Zero(s.store.Len())

	_, err := reviews.SetApproved(s.ctx, "missing", true)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(reviews.Delete(s.ctx, "missing"), ErrNotFound)
}

func (s *ContentSuite) TestServiceCatalogFallbackAndEdits() {
	catalog := NewServiceCatalog(s.store, s.publisher, nil)
	s.Equal(domain.DefaultServices(), catalog.List(s.ctx))

	updated, err := catalog.Update(s.ctx, "deep-cleaning", ServiceCommand{Title: "Генеральне", Features: []string{" вікна ", ""}})
	s.Require().NoError(err)
	s.Equal([]string{"вікна"}, updated.Features)

	list := catalog.List(s.ctx)
	s.Len(list, len(domain.DefaultServices()))
	s.Equal("Генеральне", list[1].Title)

	s.Require().NoError(catalog.Delete(s.ctx, "deep-cleaning"))
	s.Len(catalog.List(s.ctx), len(domain.DefaultServices())-1)
	s.ErrorIs(catalog.Delete(s.ctx, "deep-cleaning"), ErrNotFound)

	replaced, err := catalog.Replace(s.ctx, []ServiceCommand{{Title: "Only"}})
	s.Require().NoError(err)
	s.Require().Len(replaced, 1)
	s.NotEmpty(replaced[0].ID)

	_, err = catalog.Replace(s.ctx, []ServiceCommand{{ID: "a", Title: "x"}, {ID: "a", Title: "y"}})
	s.ErrorIs(err, ErrValidation)

	failing := NewServiceCatalog(failingStore{Store: s.store}, nil, nil)
	s.Equal(domain.DefaultServices(), failing.List(s.ctx))
}

func (s *ContentSuite) TestSettingsFallbackAndNormalization() {
	settings := NewSiteSettings(s.store, s.publisher, nil)
	s.Equal(domain.DefaultContacts(), settings.Contacts.Get(s.ctx))

	saved, err := settings.Contacts.Save(s.ctx, domain.Contacts{
		Phone:  "099 123 45 67",
		Phones: []string{"0671112233", " "},
		Email:  "hello@example.com",
	})
	s.Require().NoError(err)
	s.Equal("+380991234567", saved.Phone)
	s.Equal([]string{"+380671112233"}, saved.Phones)
	s.Equal(saved, settings.Contacts.Get(s.ctx))
	s.Contains(s.publisher.Topics(), events.TopicContactsUpdated)

	_, err = settings.Contacts.Save(s.ctx, domain.Contacts{Email: "broken"})
	s.ErrorIs(err, ErrValidation)

	_, err = settings.Branding.Save(s.ctx, domain.Branding{})
	s.ErrorIs(err, ErrValidation)

	_, err = settings.Discount.Save(s.ctx, domain.Discount{Enabled: true, Percent: 150})
	s.ErrorIs(err, ErrValidation)

	failing := NewSiteSettings(failingStore{Store: s.store}, nil, nil)
	s.Equal(domain.DefaultBranding(), failing.Branding.Get(s.ctx))
}

func (s *ContentSuite) TestGalleryTypesAndVideoMetadata() {
	gallery := NewGalleryService(s.store, s.publisher, nil)

	photo, err := gallery.Create(s.ctx, CreateGalleryItemCommand{URL: "https://img.example.com/a.jpg", Type: "Photo"})
	s.Require().NoError(err)
	s.Equal(domain.GalleryTypePhoto, photo.Type)
	s.Nil(photo.Video)

	video, err := gallery.Create(s.ctx, CreateGalleryItemCommand{URL: "https://youtu.be/dQw4w9WgXcQ", Type: "video"})
	s.Require().NoError(err)
	s.Require().NotNil(video.Video)
	s.Equal(domain.PlatformYouTube, video.Video.Platform)

	_, err = gallery.Create(s.ctx, CreateGalleryItemCommand{URL: "https://x", Type: " "})
	s.ErrorIs(err, ErrValidation)

	videos, err := gallery.List(s.ctx, "VIDEO")
	s.Require().NoError(err)
	s.Require().Len(videos, 1)
	s.Equal(video.ID, videos[0].ID)

	all, err := gallery.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	s.Require().NoError(gallery.Delete(s.ctx, photo.ID))
	all, err = gallery.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ContentSuite) TestBlogPublishingAndRendering() {
	blog := NewBlogService(s.store, s.publisher, nil)

	draft, err := blog.Create(s.ctx, UpsertBlogPostCommand{Title: "Draft", Content: "hidden"})
	s.Require().NoError(err)
	post, err := blog.Create(s.ctx, UpsertBlogPostCommand{
		Title:     "Spring cleaning",
		Content:   "# Tips\n\n**Open** the windows",
		Video:     "https://vimeo.com/123456",
		Published: true,
	})
	s.Require().NoError(err)
	s.Contains(post.ContentHTML, "<h1>Tips</h1>")
	s.Contains(post.ContentHTML, "<strong>Open</strong>")
	s.Require().NotNil(post.VideoInfo)
	s.Equal(domain.PlatformVimeo, post.VideoInfo.Platform)

	published, err := blog.ListPublished(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(published, 1)
	s.Equal(post.ID, published[0].ID)

	_, err = blog.GetPublished(s.ctx, draft.ID)
	s.ErrorIs(err, ErrNotFound)

	updated, err := blog.Update(s.ctx, draft.ID, UpsertBlogPostCommand{Title: "Draft", Content: "now public", Published: true})
	s.Require().NoError(err)
	s.Equal(draft.CreatedAt, updated.CreatedAt)
	s.False(updated.UpdatedAt.Before(draft.UpdatedAt))

	got, err := blog.GetPublished(s.ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal("now public", got.Content)

	all, err := blog.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = blog.Create(s.ctx, UpsertBlogPostCommand{Title: "x", Content: "y", Video: "not a url"})
	s.ErrorIs(err, ErrValidation)
	_, err = blog.Update(s.ctx, "missing", UpsertBlogPostCommand{Title: "x", Content: "y"})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ContentSuite) TestPricing() {
	pricing := NewPricingService(s.store, s.publisher, nil)
	s.Equal(domain.DefaultPricing(), pricing.Get(s.ctx))

	category, err := pricing.Category(s.ctx, "extra")
	s.Require().NoError(err)
	s.Equal("extra", category.ID)

	upserted, err := pricing.UpsertCategory(s.ctx, "offices", domain.PricingCategory{
		Title: "Офіси",
		Items: []domain.PriceItem{{Name: "Прибирання офісу", Price: 30, Unit: "грн/м²"}},
	})
	s.Require().NoError(err)
	s.NotEmpty(upserted.Items[0].ID)
	s.Len(pricing.Get(s.ctx).Categories, len(domain.DefaultPricing().Categories)+1)

	_, err = pricing.UpsertCategory(s.ctx, "bad", domain.PricingCategory{Title: "x", Items: []domain.PriceItem{{Name: "y", Price: -1}}})
	s.ErrorIs(err, ErrValidation)

	replaced, err := pricing.Replace(s.ctx, domain.Pricing{Categories: []domain.PricingCategory{{ID: "one", Title: "One"}}})
	s.Require().NoError(err)
	s.Len(replaced.Categories, 1)
	_, err = pricing.Category(s.ctx, "extra")
	s.ErrorIs(err, ErrNotFound)

	items := []domain.PriceItem{{Name: "Миття вікна"}, {Name: "Чищення духовки"}}
	s.Len(FilterPriceItems(items, "ВІКНА"), 1)
	s.Len(FilterPriceItems(items, ""), 2)
}

func (s *ContentSuite) TestOrdersLifecycle() {
	orders := NewOrderService(s.store, s.publisher, nil)

	order, err := orders.Create(s.ctx, CreateOrderCommand{Name: "Iryna", Phone: "0991234567", Service: "Генеральне"})
	s.Require().NoError(err)
	s.Equal("+380991234567", order.Phone)
	s.Equal(domain.OrderStatusNew, order.Status)
	s.Contains(s.publisher.Topics(), events.TopicOrderCreated)

	_, err = orders.Create(s.ctx, CreateOrderCommand{Name: "No phone"})
	s.ErrorIs(err, ErrValidation)

	for i := 0; i < 11; i++ {
		_, err := orders.Create(s.ctx, CreateOrderCommand{Name: "Bulk", Phone: "+380500000000"})
		s.Require().NoError(err)
	}

	page, err := orders.List(s.ctx, OrderFilter{}, Paging{Page: 2, Limit: 5})
	s.Require().NoError(err)
	s.Equal(12, page.Total)
	s.Equal(3, page.TotalPages)
	s.Len(page.Items, 5)

	found, err := orders.List(s.ctx, OrderFilter{Keyword: "099 123"}, Paging{})
	s.Require().NoError(err)
	s.Require().Len(found.Items, 1)
	s.Equal(order.ID, found.Items[0].ID)

	updated, err := orders.UpdateStatus(s.ctx, order.ID, "in-progress")
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusInProgress, updated.Status)

	inProgress, err := orders.List(s.ctx, OrderFilter{Status: "in-progress"}, Paging{})
	s.Require().NoError(err)
	s.Equal(1, inProgress.Total)

	_, err = orders.List(s.ctx, OrderFilter{Status: "lost"}, Paging{})
	s.ErrorIs(err, ErrValidation)
	_, err = orders.UpdateStatus(s.ctx, order.ID, "done")
	s.ErrorIs(err, ErrValidation)
	_, err = orders.UpdateStatus(s.ctx, "missing", "completed")
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(orders.Delete(s.ctx, order.ID))
	page, err = orders.List(s.ctx, OrderFilter{Status: "all"}, Paging{})
	s.Require().NoError(err)
	s.Equal(11, page.Total)
}

func (s *ContentSuite) TestExportImportRoundTrip() {
	reviews := NewReviewService(s.store, s.publisher, nil)
	gallery := NewGalleryService(s.store, s.publisher, nil)
	blog := NewBlogService(s.store, s.publisher, nil)
	orders := NewOrderService(s.store, s.publisher, nil)
	settings := NewSiteSettings(s.store, s.publisher, nil)
	transfer := NewTransferService(s.store, settings, s.publisher, nil)

	for i := 0; i < 3; i++ {
		_, err := reviews.Submit(s.ctx, SubmitReviewCommand{Name: "n", Text: "t", Rating: 5})
		s.Require().NoError(err)
	}
	_, err := gallery.Create(s.ctx, CreateGalleryItemCommand{URL: "https://img/1.jpg", Type: "photo"})
	s.Require().NoError(err)
	_, err = blog.Create(s.ctx, UpsertBlogPostCommand{Title: "t", Content: "c", Published: true})
	s.Require().NoError(err)
	_, err = orders.Create(s.ctx, CreateOrderCommand{Name: "n", Phone: "0991234567"})
	s.Require().NoError(err)
	_, err = settings.Branding.Save(s.ctx, domain.Branding{SiteName: "Site"})
	s.Require().NoError(err)

	before, err := transfer.Export(s.ctx)
	s.Require().NoError(err)
	keysBefore := s.store.Len()

	result, err := transfer.Import(s.ctx, ImportOverwrite, *before)
	s.Require().NoError(err)
	s.Equal(0, result.Removed)
	s.Equal([]string{kv.KeyBranding}, result.Singletons)

	after, err := transfer.Export(s.ctx)
	s.Require().NoError(err)
	s.Equal(before.Counts(), after.Counts())
	s.Equal(keysBefore, s.store.Len())
	s.Equal(before.Branding, after.Branding)
	s.Contains(s.publisher.Topics(), events.TopicContentImported)
}

func (s *ContentSuite) TestImportModes() {
	orders := NewOrderService(s.store, s.publisher, nil)
	transfer := NewTransferService(s.store, NewSiteSettings(s.store, nil, nil), s.publisher, nil)

	existing, err := orders.Create(s.ctx, CreateOrderCommand{Name: "kept", Phone: "0991234567"})
	s.Require().NoError(err)

	incoming := Snapshot{Orders: []domain.Order{{Name: "imported", Phone: "+380501112233"}}}

	result, err := transfer.Import(s.ctx, ImportMerge, incoming)
	s.Require().NoError(err)
	s.Equal(1, result.Imported["orders"])
	page, err := orders.List(s.ctx, OrderFilter{}, Paging{})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	result, err = transfer.Import(s.ctx, ImportOverwrite, Snapshot{Orders: []domain.Order{{ID: "only", Name: "x", Phone: "1"}}})
	s.Require().NoError(err)
	s.Equal(2, result.Removed)
	page, err = orders.List(s.ctx, OrderFilter{}, Paging{})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal("only", page.Items[0].ID)
	s.Equal(domain.OrderStatusNew, page.Items[0].Status)
	s.NotEqual(existing.ID, page.Items[0].ID)

	_, err = transfer.Import(s.ctx, ImportMode("append"), Snapshot{})
	s.ErrorIs(err, ErrValidation)

	_, err = transfer.Import(s.ctx, ImportMerge, Snapshot{Reviews: []domain.Review{{Name: "x", Rating: 9}}})
	s.ErrorIs(err, ErrValidation)
}

func (s *ContentSuite) TestOverwriteImportKeepsContentWhenWriteFails() {
	orders := NewOrderService(s.store, nil, nil)
	existing, err := orders.Create(s.ctx, CreateOrderCommand{Name: "kept", Phone: "0991234567"})
	s.Require().NoError(err)

	store := failingBatchStore{MemoryStore: s.store}
	transfer := NewTransferService(store, NewSiteSettings(store, nil, nil), s.publisher, nil)
	_, err = transfer.Import(s.ctx, ImportOverwrite, Snapshot{Orders: []domain.Order{{ID: "new", Name: "x", Phone: "1"}}})
	s.Require().Error(err)

	page, err := orders.List(s.ctx, OrderFilter{}, Paging{})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal(existing.ID, page.Items[0].ID)
	s.NotContains(s.publisher.Topics(), events.TopicContentImported)
}

func TestParseImportMode(t *testing.T) {
	mode, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, ImportOverwrite, mode)

	mode, err = ParseImportMode(" Merge ")
	require.NoError(t, err)
	assert.Equal(t, ImportMerge, mode)

	_, err = ParseImportMode("replace")
	assert.ErrorIs(t, err, ErrValidation)
}
