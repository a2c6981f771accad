package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/newscloud/classifieds-service/internal/content/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const voteCollectionName = "votes"

type VoteMongoRepository struct {
	db *mongo.Database
}

func NewVoteMongoRepository(client *mongo.Client, dbName string) *VoteMongoRepository {
	return &VoteMongoRepository{db: client.Database(dbName)}
}

type voteDocument struct {
	ContentID string             `bson:"content_id"`
	UserID    string             `bson:"user_id"`
	CreatedAt primitive.DateTime `bson:"created_at"`
}

func (r *VoteMongoRepository) Add(ctx context.Context, contentID, userID string) error {
	filter := bson.M{"content_id": contentID, "user_id": userID}
	count, err := r.db.Collection(voteCollectionName).CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to check existing vote in mongo: %w", err)
	}
	if count > 0 {
		return domain.ErrDuplicateVote
	}

	_, err = r.db.Collection(voteCollectionName).InsertOne(ctx, voteDocument{
		ContentID: contentID,
		UserID:    userID,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateVote
	}
	if err != nil {
		return fmt.Errorf("failed to add vote in mongo: %w", err)
	}
	return nil
}

func (r *VoteMongoRepository) Remove(ctx context.Context, contentID, userID string) error {
	res, err := r.db.Collection(voteCollectionName).DeleteOne(ctx, bson.M{
		"content_id": contentID,
		"user_id":    userID,
	})
	if err != nil {
		return fmt.Errorf("failed to remove vote in mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (r *VoteMongoRepository) Count(ctx context.Context, contentID string) (int64, error) {
	count, err := r.db.Collection(voteCollectionName).CountDocuments(ctx, bson.M{"content_id": contentID})
	if err != nil {
		return 0, fmt.Errorf("failed to count votes in mongo: %w", err)
	}
	return count, nil
}
