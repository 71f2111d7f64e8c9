package mongo

import (
	"alcyxob/workout-progress/internal/storage"
	"alcyxob/workout-progress/internal/telemetry/tracing"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsCollectionName = "settings"

// settingDocument is one key-value row of the settings collection.
type settingDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoSettingsStore implements storage.BlobStore on a key-value collection.
type mongoSettingsStore struct {
	collection *mongo.Collection
}

func NewMongoSettingsStore(db *mongo.Database) storage.BlobStore {
	return &mongoSettingsStore{
		collection: db.Collection(settingsCollectionName),
	}
}

func (s *mongoSettingsStore) Get(ctx context.Context, key string) (blob []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mongoSettingsStore.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var doc settingDocument
	err = s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrBlobNotFound
		}
		return nil, fmt.Errorf("find setting %q: %w", key, err)
	}
	return doc.Value, nil
}

func (s *mongoSettingsStore) Put(ctx context.Context, key string, blob []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mongoSettingsStore.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	update := bson.M{
		"$set": bson.M{
			"value":     blob,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err = s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}
