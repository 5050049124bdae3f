// Package mongostore stores documents in a MongoDB collection, one record per path.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teddy/internal/blob"
	"teddy/internal/log"
)

// CollectionName is the collection holding one record per document path.
const CollectionName = "blobs"

// ---- Abstractions for testability ----

// SingleResult is the subset of *mongo.SingleResult the store reads.
type SingleResult interface {
	Decode(v interface{}) error
}

// Collection is the subset of *mongo.Collection the store uses.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}) SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// MongoCollection adapts *mongo.Collection to Collection.
type MongoCollection struct {
	*mongo.Collection
}

func (c *MongoCollection) FindOne(ctx context.Context, filter interface{}) SingleResult {
	return c.Collection.FindOne(ctx, filter)
}

type record struct {
	Path      string    `bson:"_id"`
	Content   []byte    `bson:"content"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type Store struct {
	coll Collection
	now  func() time.Time
}

func New(coll Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, blob.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", path, err)
	}
	return rec.Content, nil
}

func (s *Store) Write(ctx context.Context, path string, data []byte) error {
	rec := record{Path: path, Content: data, UpdatedAt: s.now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": path}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Connect establishes a connection to MongoDB and verifies it with a ping.
func Connect(ctx context.Context, uri string, logger *log.Logger) (*mongo.Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	logger.DebugContext(ctx, "Attempting to connect to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.InfoContext(ctx, "Successfully established connection to MongoDB")
	return client, nil
}

// NewFromClient returns a store over database's blob collection.
func NewFromClient(client *mongo.Client, database string) *Store {
	return New(&MongoCollection{client.Database(database).Collection(CollectionName)})
}
