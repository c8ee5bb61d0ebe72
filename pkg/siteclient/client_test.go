package siteclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chystahata/site/api/internal/config"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/chystahata/site/api/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := server.New(config.Config{
		BasePath:             "/api",
		AnonKey:              "anon",
		AdminDefaultPassword: "admin123",
		SessionSecret:        "client-test-secret",
		SessionIssuer:        "test",
		SessionTTL:           time.Hour,
		LoginRatePerMinute:   100,
		SubmitRatePerMinute:  100,
		AllowedOrigins:       []string{"*"},
	}, server.Deps{Store: kv.NewMemoryStore(), Bus: events.NewBus(nil, "test")})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientAgainstAPI(t *testing.T) {
	ts := newAPIServer(t)
	ctx := context.Background()
	client := New(ts.URL+"/api/", "anon")

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	contacts, err := client.Contacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultContacts().Phone, contacts.Phone)

	review, err := client.SubmitReview(ctx, ReviewInput{Name: "Марія", Text: "Дякую!", Rating: 5})
	require.NoError(t, err)
	reviews, err := client.Reviews(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = client.AllReviews(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.Login(ctx, "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, client.Token())

	info, err := client.Session(ctx)
	require.NoError(t, err)
	assert.True(t, info.Valid)

	approved, err := client.ApproveReview(ctx, review.ID, true)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	reviews, err = client.Reviews(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	order, err := client.CreateOrder(ctx, OrderInput{Name: "Петро", Phone: "0501112233"})
	require.NoError(t, err)
	page, err := client.Orders(ctx, OrderQuery{Status: "new", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, order.ID, page.Items[0].ID)

	_, err = client.ChangePassword(ctx, "admin123", "brand-new-pass")
	require.NoError(t, err)
	_, err = client.Session(ctx)
	require.NoError(t, err)
}

func TestClientValidationErrorsAreAPIErrors(t *testing.T) {
	ts := newAPIServer(t)
	client := New(ts.URL+"/api", "anon")

	_, err := client.CreateOrder(context.Background(), OrderInput{Name: "Без телефону"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestUnauthorizedDropsTokenAndNotifies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid or expired session"}`))
	}))
	defer ts.Close()

	client := New(ts.URL, "")
	client.SetToken("stale")
	notified := 0
	client.OnUnauthorized = func() { notified++ }

	_, err := client.Session(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid or expired session")
	assert.Empty(t, client.Token())
	assert.Equal(t, 1, notified)
}

func TestSuccessFalseEnvelopeIsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"nope"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").Services(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "nope", apiErr.Message)
}

func TestWaitForConnection(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := New(url, "")
	var attempts []int
	err := client.WaitForConnection(context.Background(), 3, time.Millisecond, func(attempt, _ int, err error) {
		attempts = append(attempts, attempt)
		var connErr *ConnectionError
		assert.True(t, errors.As(err, &connErr))
	})
	require.ErrorIs(t, err, ErrStoreUnreachable)
	assert.Equal(t, []int{1, 2, 3}, attempts)

	live := newAPIServer(t)
	require.NoError(t, New(live.URL+"/api", "anon").WaitForConnection(context.Background(), 2, time.Millisecond, nil))
}
