package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/newscloud/classifieds-service/internal/content/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contentCollectionName = "contents"

type ContentMongoRepository struct {
	db *mongo.Database
}

func NewContentMongoRepository(client *mongo.Client, dbName string) *ContentMongoRepository {
	return &ContentMongoRepository{db: client.Database(dbName)}
}

type contentDocument struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	AuthorID   string              `bson:"author_id"`
	Title      string              `bson:"title"`
	Caption    string              `bson:"caption"`
	URL        string              `bson:"url,omitempty"`
	ImageURL   string              `bson:"image_url,omitempty"`
	StoryType  string              `bson:"story_type"`
	Tags       []string            `bson:"tags"`
	ArticleID  string              `bson:"article_id,omitempty"`
	NewswireID string              `bson:"newswire_id,omitempty"`
	VotesTally int64               `bson:"votes_tally"`
	IsFeatured bool                `bson:"is_featured"`
	FeaturedAt *primitive.DateTime `bson:"featured_at,omitempty"`
	CreatedAt  primitive.DateTime  `bson:"created_at"`
	UpdatedAt  primitive.DateTime  `bson:"updated_at"`
}

func toContentDocument(c *domain.Content) (*contentDocument, error) {
	doc := &contentDocument{
		AuthorID:   c.AuthorID,
		Title:      c.Title,
		Caption:    c.Caption,
		URL:        c.URL,
		ImageURL:   c.ImageURL,
		StoryType:  c.StoryType,
		Tags:       c.Tags,
		ArticleID:  c.ArticleID,
		NewswireID: c.NewswireID,
		VotesTally: c.VotesTally,
		IsFeatured: c.IsFeatured,
		CreatedAt:  primitive.NewDateTimeFromTime(c.CreatedAt),
		UpdatedAt:  primitive.NewDateTimeFromTime(c.UpdatedAt),
	}
	if c.FeaturedAt != nil {
		dt := primitive.NewDateTimeFromTime(*c.FeaturedAt)
		doc.FeaturedAt = &dt
	}
	if c.ID != "" {
		objID, err := primitive.ObjectIDFromHex(c.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid content ID format: %w", err)
		}
		doc.ID = objID
	}
	return doc, nil
}

func toContentEntity(doc *contentDocument) *domain.Content {
	c := &domain.Content{
		ID:         doc.ID.Hex(),
		AuthorID:   doc.AuthorID,
		Title:      doc.Title,
		Caption:    doc.Caption,
		URL:        doc.URL,
		ImageURL:   doc.ImageURL,
		StoryType:  doc.StoryType,
		Tags:       doc.Tags,
		ArticleID:  doc.ArticleID,
		NewswireID: doc.NewswireID,
		VotesTally: doc.VotesTally,
		IsFeatured: doc.IsFeatured,
		CreatedAt:  doc.CreatedAt.Time(),
		UpdatedAt:  doc.UpdatedAt.Time(),
	}
	if doc.FeaturedAt != nil {
		t := doc.FeaturedAt.Time()
		c.FeaturedAt = &t
	}
	return c
}

func (r *ContentMongoRepository) Create(ctx context.Context, content *domain.Content) (string, error) {
	doc, err := toContentDocument(content)
	if err != nil {
		return "", err
	}

	res, err := r.db.Collection(contentCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create content in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *ContentMongoRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrContentNotFound
	}

	var doc contentDocument
	err = r.db.Collection(contentCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content by id from mongo: %w", err)
	}
	return toContentEntity(&doc), nil
}

func (r *ContentMongoRepository) Update(ctx context.Context, content *domain.Content) error {
	doc, err := toContentDocument(content)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("content ID is required for update")
	}

	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"caption":     doc.Caption,
		"url":         doc.URL,
		"image_url":   doc.ImageURL,
		"story_type":  doc.StoryType,
		"tags":        doc.Tags,
		"is_featured": doc.IsFeatured,
		"featured_at": doc.FeaturedAt,
		"updated_at":  doc.UpdatedAt,
	}}

	res, err := r.db.Collection(contentCollectionName).UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update content in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

func (r *ContentMongoRepository) Newest(ctx context.Context, limit int) ([]*domain.Content, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, findOptions)
}

func (r *ContentMongoRepository) Top(ctx context.Context, limit int) ([]*domain.Content, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "votes_tally", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, findOptions)
}

func (r *ContentMongoRepository) TopArticles(ctx context.Context, limit int) ([]*domain.Content, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "votes_tally", Value: -1}}).
		SetLimit(int64(limit))
	filter := bson.M{"article_id": bson.M{"$exists": true, "$ne": ""}}
	return r.find(ctx, filter, findOptions)
}

func (r *ContentMongoRepository) IncrementVotes(ctx context.Context, id string, delta int) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, domain.ErrContentNotFound
	}

	after := options.After
	res := r.db.Collection(contentCollectionName).FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$inc": bson.M{"votes_tally": delta}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	)

	var doc contentDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrContentNotFound
		}
		return 0, fmt.Errorf("failed to increment votes in mongo: %w", err)
	}
	return doc.VotesTally, nil
}

func (r *ContentMongoRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*domain.Content, error) {
	cursor, err := r.db.Collection(contentCollectionName).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list content from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []contentDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode content list from mongo: %w", err)
	}

	contents := make([]*domain.Content, len(docs))
	for i, doc := range docs {
		contents[i] = toContentEntity(&doc)
	}
	return contents, nil
}
