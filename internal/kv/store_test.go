package kv

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestMemoryStoreBasics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "contacts", json.RawMessage(`{"phone":"1"}`)))
	value, err := store.Get(ctx, "contacts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"1"}`, string(value))

	// returned values are copies
	value[2] = 'X'
	again, err := store.Get(ctx, "contacts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"1"}`, string(again))

	require.NoError(t, store.Delete(ctx, "contacts"))
	_, err = store.Get(ctx, "contacts")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStorePrefixListing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetMany(ctx, []Entry{
		{Key: PrefixReview + "b", Value: json.RawMessage(`{"id":"b"}`)},
		{Key: PrefixReview + "a", Value: json.RawMessage(`{"id":"a"}`)},
		{Key: PrefixOrder + "x", Value: json.RawMessage(`{"id":"x"}`)},
		{Key: "reviewer", Value: json.RawMessage(`{}`)},
	}))

	entries, err := store.GetByPrefix(ctx, PrefixReview)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, PrefixReview+"a", entries[0].Key)
	assert.Equal(t, PrefixReview+"b", entries[1].Key)

	require.NoError(t, store.DeleteMany(ctx, []string{PrefixReview + "a", PrefixOrder + "x"}))
	assert.Equal(t, 2, store.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, SetJSON(ctx, store, PrefixBlog+"1", note{ID: "1", Text: "first"}))
	require.NoError(t, SetJSON(ctx, store, PrefixBlog+"2", note{ID: "2", Text: "second"}))
	require.NoError(t, store.Set(ctx, PrefixBlog+"3", json.RawMessage(`"not an object"`)))

	var got note
	require.NoError(t, GetJSON(ctx, store, PrefixBlog+"1", &got))
	assert.Equal(t, "first", got.Text)
	assert.ErrorIs(t, GetJSON(ctx, store, PrefixBlog+"9", &got), ErrNotFound)

	items, skipped, err := ListJSON[note](ctx, store, PrefixBlog)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, skipped)
}

func TestEntries(t *testing.T) {
	entries, err := Entries(PrefixGallery, []note{{ID: "a"}, {ID: "b"}}, func(n note) string { return n.ID })
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, PrefixGallery+"a", entries[0].Key)
	assert.JSONEq(t, `{"id":"b","text":""}`, string(entries[1].Value))
}
