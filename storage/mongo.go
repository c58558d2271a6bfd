package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Mongo keeps one document per key in a collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongo(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoEntry
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (m *Mongo) Set(ctx context.Context, key string, value []byte) error {
	doc := mongoEntry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
