package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/newscloud/classifieds-service/internal/tweeter"
)

const tweetCollectionName = "tweets"

type TweetMongoRepository struct {
	db *mongo.Database
}

func NewTweetMongoRepository(client *mongo.Client, dbName string) *TweetMongoRepository {
	return &TweetMongoRepository{db: client.Database(dbName)}
}

type tweetDocument struct {
	TwitterID string             `bson:"twitter_id"`
	Text      string             `bson:"text"`
	Raw       string             `bson:"raw"`
	URLs      []string           `bson:"urls"`
	CreatedAt primitive.DateTime `bson:"created_at"`
}

func (r *TweetMongoRepository) Save(ctx context.Context, tweet *tweeter.Tweet) error {
	doc := tweetDocument{
		TwitterID: tweet.TwitterID,
		Text:      tweet.Text,
		Raw:       string(tweet.Raw),
		URLs:      tweet.URLs,
		CreatedAt: primitive.NewDateTimeFromTime(tweet.CreatedAt),
	}
	_, err := r.db.Collection(tweetCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save tweet in mongo: %w", err)
	}
	return nil
}

func (r *TweetMongoRepository) LastTwitterID(ctx context.Context) (string, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "twitter_id", Value: -1}})
	var doc tweetDocument
	err := r.db.Collection(tweetCollectionName).FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last tweet id from mongo: %w", err)
	}
	return doc.TwitterID, nil
}
