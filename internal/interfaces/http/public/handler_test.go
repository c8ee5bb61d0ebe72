package public

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	orders  chan domain.Order
	reviews chan domain.Review
}

func (n *recordingNotifier) OrderCreated(_ context.Context, order domain.Order) {
	n.orders <- order
}

func (n *recordingNotifier) ReviewSubmitted(_ context.Context, review domain.Review) {
	n.reviews <- review
}

type fixture struct {
	router   chi.Router
	bus      *events.Bus
	pricing  application.PricingService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	bus := events.NewBus(nil, "test")
	accounts, err := account.NewService(account.Config{
		Store:           store,
		DefaultPassword: "admin123",
		SessionSecret:   []byte("secret"),
		SessionTTL:      time.Hour,
		BcryptCost:      4,
	})
	require.NoError(t, err)

	notifier := &recordingNotifier{orders: make(chan domain.Order, 1), reviews: make(chan domain.Review, 1)}
	pricing := application.NewPricingService(store, bus, nil)
	handler := NewHandler(Config{
		Services:  application.NewServiceCatalog(store, bus, nil),
		Reviews:   application.NewReviewService(store, bus, nil),
		Gallery:   application.NewGalleryService(store, bus, nil),
		Blog:      application.NewBlogService(store, bus, nil),
		Pricing:   pricing,
		Orders:    application.NewOrderService(store, bus, nil),
		Settings:  application.NewSiteSettings(store, bus, nil),
		Account:   accounts,
		Notifier:  notifier,
		Events:    bus,
		Heartbeat: time.Hour,
	})
	router := chi.NewRouter()
	handler.Register(router)
	return &fixture{router: router, bus: bus, pricing: pricing, notifier: notifier}
}

func (f *fixture) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, json.RawMessage) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewReader(payload)))

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env.Data
}

func TestPricingKeywordFilter(t *testing.T) {
	f := newFixture(t)
	_, err := f.pricing.Replace(context.Background(), domain.Pricing{Categories: []domain.PricingCategory{
		{ID: "flat", Title: "Квартири", Items: []domain.PriceItem{
			{Name: "Генеральне прибирання", Price: 40, Unit: "м²"},
			{Name: "Миття вікон", Price: 120, Unit: "вікно"},
		}},
		{ID: "office", Title: "Офіси", Items: []domain.PriceItem{
			{Name: "Щоденне прибирання", Price: 25, Unit: "м²"},
		}},
	}})
	require.NoError(t, err)

	rec, data := f.do(t, http.MethodGet, "/pricing?q=вікн", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pricing domain.Pricing
	require.NoError(t, json.Unmarshal(data, &pricing))
	require.Len(t, pricing.Categories, 1)
	assert.Equal(t, "flat", pricing.Categories[0].ID)
	require.Len(t, pricing.Categories[0].Items, 1)

	rec, data = f.do(t, http.MethodGet, "/pricing/flat?page=2&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page pricingCategoryResponse
	require.NoError(t, json.Unmarshal(data, &page))
	assert.Equal(t, 2, page.Items.Total)
	assert.Equal(t, 2, page.Items.TotalPages)
	require.Len(t, page.Items.Items, 1)
	assert.Equal(t, "Миття вікон", page.Items.Items[0].Name)

	rec, _ = f.do(t, http.MethodGet, "/pricing/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmissionsNotifyAdmins(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/orders", map[string]string{"name": "Ганна", "phone": "(099) 123-45-67"})
	require.Equal(t, http.StatusCreated, rec.Code)
	select {
	case order := <-f.notifier.orders:
		assert.Equal(t, "+380991234567", order.Phone)
	case <-time.After(time.Second):
		t.Fatal("order notification not sent")
	}

	rec, _ = f.do(t, http.MethodPost, "/reviews", map[string]any{"name": "Ганна", "text": "Чудово", "rating": 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	select {
	case review := <-f.notifier.reviews:
		assert.Equal(t, 4, review.Rating)
		assert.False(t, review.Approved)
	case <-time.After(time.Second):
		t.Fatal("review notification not sent")
	}
}

func TestBlogDetailHidesDrafts(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/blog/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool {
		return f.bus.SubscriberCount(events.TopicAll) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.bus.Publish(context.Background(), events.New(events.TopicKeyChanged, kv.KeyContacts)))
	require.NoError(t, f.bus.Publish(context.Background(), events.New(events.TopicContactsUpdated, nil)))
	// give the stream goroutine a moment to write before the request ends
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, ": connected\n\n"))
	assert.Contains(t, body, "event: "+string(events.TopicContactsUpdated)+"\n")
	assert.NotContains(t, body, string(events.TopicKeyChanged))
}
