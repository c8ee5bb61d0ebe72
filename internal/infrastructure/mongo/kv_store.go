package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/chystahata/site/api/internal/kv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// KVStore implements kv.Store on a single MongoDB collection keyed by _id.
type KVStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewKVStore binds the store to db.collection.
func NewKVStore(client *mongo.Client, database, collection string) *KVStore {
	return &KVStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (s *KVStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var doc KVDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc.Payload), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	doc, err := newDocument(key, value)
	if err != nil {
		return err
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// GetByPrefix uses an anchored regex on _id, which MongoDB serves from the primary index.
func (s *KVStore) GetByPrefix(ctx context.Context, prefix string) ([]kv.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, prefixFilter(prefix), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]kv.Entry, 0)
	for cursor.Next(ctx) {
		var doc KVDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, kv.Entry{Key: doc.Key, Value: json.RawMessage(doc.Payload)})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *KVStore) SetMany(ctx context.Context, entries []kv.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		doc, err := newDocument(entry.Key, entry.Value)
		if err != nil {
			return err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": entry.Key}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (s *KVStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the client with a bounded wait.
func (s *KVStore) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func prefixFilter(prefix string) bson.M {
	return bson.M{"_id": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}
}

func newDocument(key string, value json.RawMessage) (KVDocument, error) {
	if !json.Valid(value) {
		return KVDocument{}, fmt.Errorf("mongo kv: value for %s is not valid JSON", key)
	}
	return KVDocument{
		Key:       key,
		Payload:   string(value),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
