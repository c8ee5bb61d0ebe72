package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToTopicAndWildcard(t *testing.T) {
	bus := NewBus(nil, "node-a")
	ctx := context.Background()

	var mu sync.Mutex
	var got []string
	record := func(name string) Handler {
		return func(_ context.Context, event Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+string(event.Topic))
			return nil
		}
	}
	bus.Subscribe(TopicReviewsUpdated, record("reviews"))
	bus.Subscribe(TopicAll, record("all"))

	require.NoError(t, bus.Publish(ctx, New(TopicReviewsUpdated, "r1")))
	require.NoError(t, bus.Publish(ctx, New(TopicBlogUpdated, "b1")))

	assert.Equal(t, []string{
		"reviews:" + string(TopicReviewsUpdated),
		"all:" + string(TopicReviewsUpdated),
		"all:" + string(TopicBlogUpdated),
	}, got)
}

func TestBusStampsOrigin(t *testing.T) {
	bus := NewBus(nil, "node-a")
	var origins []string
	bus.Subscribe(TopicAll, func(_ context.Context, event Event) error {
		origins = append(origins, event.Origin)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), New(TopicOrderCreated, nil)))
	require.NoError(t, bus.Publish(context.Background(), Event{Topic: TopicOrderCreated, Origin: "node-b"}))
	assert.Equal(t, []string{"node-a", "node-b"}, origins)
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	bus := NewBus(nil, "node-a")
	first := bus.Subscribe(TopicPricingUpdated, func(context.Context, Event) error { return nil })
	bus.Subscribe(TopicPricingUpdated, func(context.Context, Event) error { return nil })
	require.Equal(t, 2, bus.SubscriberCount(TopicPricingUpdated))

	first()
	first()
	assert.Equal(t, 1, bus.SubscriberCount(TopicPricingUpdated))
}

func TestBusRetriesFailingHandler(t *testing.T) {
	bus := NewBusWithConfig(nil, "node-a", BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	calls := 0
	bus.Subscribe(TopicGalleryUpdated, func(context.Context, Event) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, bus.Publish(context.Background(), New(TopicGalleryUpdated, nil)))
	assert.Equal(t, 3, calls)

	bus.Subscribe(TopicDiscountUpdated, func(context.Context, Event) error { return errors.New("down") })
	err := bus.Publish(context.Background(), New(TopicDiscountUpdated, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestStreamReceivesUntilCancelled(t *testing.T) {
	bus := NewBus(nil, "node-a")
	ctx, cancel := context.WithCancel(context.Background())
	stream := bus.Stream(ctx, 4)

	require.NoError(t, bus.Publish(context.Background(), New(TopicContactsUpdated, "contacts")))
	select {
	case event := <-stream:
		assert.Equal(t, TopicContactsUpdated, event.Topic)
	case <-time.After(time.Second):
		t.Fatal("event not streamed")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-stream:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, bus.SubscriberCount(TopicAll))
}

func TestInternalTopics(t *testing.T) {
	assert.True(t, TopicKeyChanged.Internal())
	assert.False(t, TopicBrandingUpdated.Internal())
}

func TestRedisBridgeIgnoresOwnAndForeignTraffic(t *testing.T) {
	bus := NewBus(nil, "node-a")
	bridge := NewRedisBridge(nil, "site-events", bus, nil)

	var received []Event
	bus.Subscribe(TopicAll, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	own, err := json.Marshal(Event{Topic: TopicKeyChanged, Payload: "contacts", Origin: "node-a"})
	require.NoError(t, err)
	remote, err := json.Marshal(Event{Topic: TopicKeyChanged, Payload: "branding", Origin: "node-b"})
	require.NoError(t, err)

	bridge.deliver(context.Background(), string(own))
	bridge.deliver(context.Background(), "not json")
	bridge.deliver(context.Background(), string(remote))

	require.Len(t, received, 1)
	assert.Equal(t, "branding", received[0].Payload)
	assert.Equal(t, "node-b", received[0].Origin)

	// remote events are never sent back out, so no client is touched
	assert.NoError(t, bridge.forward(context.Background(), received[0]))
}

func TestRedisBridgeRunNeedsClient(t *testing.T) {
	bridge := NewRedisBridge(nil, "", NewBus(nil, "node-a"), nil)
	assert.Error(t, bridge.Run(context.Background()))
}

func TestPublishAndForgetSurvivesCancelledContext(t *testing.T) {
	bus := NewBus(nil, "node-a")
	delivered := make(chan Topic, 1)
	bus.Subscribe(TopicOrderCreated, func(_ context.Context, event Event) error {
		delivered <- event.Topic
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.PublishAndForget(ctx, New(TopicOrderCreated, "o1"))

	select {
	case topic := <-delivered:
		assert.Equal(t, TopicOrderCreated, topic)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestFailingHandlerDoesNotStarveLaterSubscribers(t *testing.T) {
	bus := NewBusWithConfig(nil, "node-a", BusConfig{MaxRetries: 0, RetryDelay: time.Millisecond})
	bus.Subscribe(TopicAll, func(context.Context, Event) error { return errors.New("bridge down") })
	bus.Subscribe(TopicContactsUpdated, func(context.Context, Event) error { return errors.New("audit down") })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := bus.Stream(ctx, 4)

	err := bus.Publish(context.Background(), New(TopicContactsUpdated, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge down")
	assert.Contains(t, err.Error(), "audit down")

	select {
	case event := <-stream:
		assert.Equal(t, TopicContactsUpdated, event.Topic)
	case <-time.After(time.Second):
		t.Fatal("stream subscriber skipped after a failing handler")
	}
}
