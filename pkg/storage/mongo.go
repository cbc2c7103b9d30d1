// Package storage provides the gallery store: enrolled identities kept in a
// MongoDB collection, with optional precomputed embeddings sealed at rest
// using NaCl secretbox.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/config"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStoreUnavailable is returned when the store cannot be reached.
var ErrStoreUnavailable = errors.New("gallery store unavailable")

// ErrRecordNotFound is returned when a delete matches nothing.
var ErrRecordNotFound = errors.New("record not found")

// ErrInvalidRecord is returned when a record is missing required fields.
var ErrInvalidRecord = errors.New("invalid record")

// MongoStore implements the gallery store on a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens the store and verifies the server is reachable within
// cfg.ConnectTimeout, so an unreachable store fails instead of hanging.
func Connect(ctx context.Context, cfg config.GalleryConfig) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, cfg.Redacted(), err)
	}

	logging.Component("storage").Infof("Connected to %s (collection %s)", cfg.Redacted(), cfg.Collection)

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// All returns every record in natural collection order, images included.
func (s *MongoStore) All(ctx context.Context) ([]Record, error) {
	return s.find(ctx, options.Find())
}

// List returns every record without image or embedding payloads.
func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	projection := bson.M{"image_binary": 0, "embedding": 0, "embedding_sealed": 0}
	return s.find(ctx, options.Find().SetProjection(projection))
}

func (s *MongoStore) find(ctx context.Context, opts *options.FindOptions) ([]Record, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = cursor.Close(context.Background()) }()

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// Insert adds a record and returns its key. Name and an image or embedding
// are required.
func (s *MongoStore) Insert(ctx context.Context, rec Record) (string, error) {
	if rec.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if len(rec.ImageBinary) == 0 && !rec.HasEmbedding() {
		return "", fmt.Errorf("%w: image or embedding is required", ErrInvalidRecord)
	}
	if rec.EnrolledAt.IsZero() {
		rec.EnrolledAt = time.Now().UTC()
	}

	res, err := s.collection.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	logging.Component("storage").Infof("Inserted %s %s (%s)", rec.Name, rec.FName, id.Hex())
	return id.Hex(), nil
}

// Delete removes the record with the given key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, key)
	}
	return s.deleteOne(ctx, bson.M{"_id": id})
}

// DeleteByName removes one record matching name and family name.
func (s *MongoStore) DeleteByName(ctx context.Context, name, fname string) error {
	return s.deleteOne(ctx, bson.M{"name": name, "fname": fname})
}

func (s *MongoStore) deleteOne(ctx context.Context, filter bson.M) error {
	res, err := s.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	logging.Component("storage").Infof("Deleted record matching %v", filter)
	return nil
}
