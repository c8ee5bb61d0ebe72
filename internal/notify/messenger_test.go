package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatedPostsToGateway(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	store := kv.NewMemoryStore()
	messenger := NewMessenger(Config{
		Endpoint:    server.URL + "/",
		Destination: "telegram",
		Recipient:   "ops",
		Store:       store,
	})
	require.True(t, messenger.Enabled())

	messenger.OrderCreated(context.Background(), domain.Order{ID: "o1", Name: "Iryna", Phone: "+380991234567"})

	assert.Equal(t, "ops", received["userId"])
	assert.Equal(t, "telegram", received["destination"])
	assert.Contains(t, received["text"], "+380991234567")
	assert.Zero(t, store.Len())
}

func TestFailedDeliveryIsRetriedThenPersisted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	store := kv.NewMemoryStore()
	messenger := NewMessenger(Config{
		Endpoint:   server.URL,
		Store:      store,
		Attempts:   3,
		RetryDelay: time.Millisecond,
	})

	messenger.ReviewSubmitted(context.Background(), domain.Review{ID: "r1", Name: "Olena", Rating: 5, Text: "Чисто"})

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	failures, skipped, err := kv.ListJSON[FailedNotification](context.Background(), store, kv.PrefixFailedNotification)
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Len(t, failures, 1)
	assert.Equal(t, "review", failures[0].Kind)
	assert.Equal(t, "r1", failures[0].SubjectID)
	assert.Equal(t, 3, failures[0].Attempts)
	assert.Contains(t, failures[0].Error, "status=502")
}

func TestDisabledMessengerDoesNothing(t *testing.T) {
	store := kv.NewMemoryStore()
	messenger := NewMessenger(Config{Store: store})
	assert.False(t, messenger.Enabled())

	messenger.OrderCreated(context.Background(), domain.Order{ID: "o1"})
	assert.Zero(t, store.Len())

	var nilMessenger *Messenger
	assert.False(t, nilMessenger.Enabled())
}

func TestMessagesSkipEmptyFields(t *testing.T) {
	text := buildOrderMessage(domain.Order{Name: "Iryna", Phone: "+380991234567"})
	assert.Contains(t, text, "Ім'я: Iryna")
	assert.NotContains(t, text, "Email")

	text = buildReviewMessage(domain.Review{Name: "Olena", Rating: 4, Text: "ok"})
	assert.Contains(t, text, "4 / 5")
}
