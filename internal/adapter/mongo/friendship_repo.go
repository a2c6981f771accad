package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const friendshipCollectionName = "friendships"

// FriendshipMongoRepository resolves the social graph from a friendships
// collection. Edges are stored once per pair; lookups check both directions.
type FriendshipMongoRepository struct {
	db *mongo.Database
}

func NewFriendshipMongoRepository(client *mongo.Client, dbName string) *FriendshipMongoRepository {
	return &FriendshipMongoRepository{db: client.Database(dbName)}
}

type friendshipDocument struct {
	UserID   string `bson:"user_id"`
	FriendID string `bson:"friend_id"`
}

func (r *FriendshipMongoRepository) AddFriendship(ctx context.Context, userID, friendID string) error {
	_, err := r.db.Collection(friendshipCollectionName).InsertOne(ctx, friendshipDocument{
		UserID:   userID,
		FriendID: friendID,
	})
	if err != nil {
		return fmt.Errorf("failed to add friendship in mongo: %w", err)
	}
	return nil
}

func (r *FriendshipMongoRepository) IsFriend(ctx context.Context, userID, otherID string) (bool, error) {
	count, err := r.db.Collection(friendshipCollectionName).CountDocuments(ctx, pairFilter(userID, otherID))
	if err != nil {
		return false, fmt.Errorf("failed to check friendship in mongo: %w", err)
	}
	return count > 0, nil
}

// IsFriendOfFriend checks for a path of length two: intersect the two users'
// friend sets. Direct friends do not count as friends of friends here; the
// policy checks the closer relationship through IsFriend.
func (r *FriendshipMongoRepository) IsFriendOfFriend(ctx context.Context, userID, otherID string) (bool, error) {
	mine, err := r.friendIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(mine) == 0 {
		return false, nil
	}
	theirs, err := r.friendIDs(ctx, otherID)
	if err != nil {
		return false, err
	}

	mineSet := make(map[string]struct{}, len(mine))
	for _, id := range mine {
		mineSet[id] = struct{}{}
	}
	for _, id := range theirs {
		if _, ok := mineSet[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *FriendshipMongoRepository) friendIDs(ctx context.Context, userID string) ([]string, error) {
	cursor, err := r.db.Collection(friendshipCollectionName).Find(ctx, bson.M{
		"$or": []bson.M{{"user_id": userID}, {"friend_id": userID}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []friendshipDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode friendships from mongo: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.UserID == userID {
			ids = append(ids, doc.FriendID)
		} else {
			ids = append(ids, doc.UserID)
		}
	}
	return ids, nil
}

func pairFilter(a, b string) bson.M {
	return bson.M{"$or": []bson.M{
		{"user_id": a, "friend_id": b},
		{"user_id": b, "friend_id": a},
	}}
}
