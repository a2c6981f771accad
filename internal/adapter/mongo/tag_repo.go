package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tagCollectionName = "default_tags"

// TagMongoRegistry stores the default tags allowed per context. Registering
// the same tag twice is a no-op thanks to the upsert.
type TagMongoRegistry struct {
	db *mongo.Database
}

func NewTagMongoRegistry(client *mongo.Client, dbName string) *TagMongoRegistry {
	return &TagMongoRegistry{db: client.Database(dbName)}
}

type tagDocument struct {
	Name    string `bson:"name"`
	Context string `bson:"context"`
}

func (r *TagMongoRegistry) RegisteredTags(ctx context.Context, tagContext string) ([]string, error) {
	cursor, err := r.db.Collection(tagCollectionName).Find(ctx, bson.M{"context": tagContext})
	if err != nil {
		return nil, fmt.Errorf("failed to list default tags from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []tagDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode default tags from mongo: %w", err)
	}

	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return names, nil
}

func (r *TagMongoRegistry) RegisterTag(ctx context.Context, name, tagContext string) error {
	filter := bson.M{"name": name, "context": tagContext}
	update := bson.M{"$setOnInsert": tagDocument{Name: name, Context: tagContext}}

	_, err := r.db.Collection(tagCollectionName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to register default tag in mongo: %w", err)
	}
	return nil
}
