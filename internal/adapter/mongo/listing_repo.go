package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newscloud/classifieds-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "listings"

type ListingMongoRepository struct {
	db *mongo.Database
}

func NewListingMongoRepository(client *mongo.Client, dbName string) *ListingMongoRepository {
	return &ListingMongoRepository{db: client.Database(dbName)}
}

type listingDocument struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID       string              `bson:"owner_id"`
	Title         string              `bson:"title"`
	Details       string              `bson:"details"`
	ListingType   string              `bson:"listing_type"`
	Allow         string              `bson:"allow"`
	State         string              `bson:"state"`
	Categories    []string            `bson:"categories"`
	Subcategories []string            `bson:"subcategories"`
	Photos        []string            `bson:"photos"`
	ExpiresAt     primitive.DateTime  `bson:"expires_at"`
	PublishedAt   *primitive.DateTime `bson:"published_at,omitempty"`
	RenewedAt     *primitive.DateTime `bson:"renewed_at,omitempty"`
	CreatedAt     primitive.DateTime  `bson:"created_at"`
	UpdatedAt     primitive.DateTime  `bson:"updated_at"`
	Version       int64               `bson:"version"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	doc := &listingDocument{
		OwnerID:       l.OwnerID,
		Title:         l.Title,
		Details:       l.Details,
		ListingType:   string(l.Type),
		Allow:         string(l.Allow),
		State:         string(l.State),
		Categories:    l.Categories,
		Subcategories: l.Subcategories,
		Photos:        l.Photos,
		ExpiresAt:     primitive.NewDateTimeFromTime(l.ExpiresAt),
		CreatedAt:     primitive.NewDateTimeFromTime(l.CreatedAt),
		UpdatedAt:     primitive.NewDateTimeFromTime(l.UpdatedAt),
		Version:       l.Version,
	}
	if l.PublishedAt != nil {
		dt := primitive.NewDateTimeFromTime(*l.PublishedAt)
		doc.PublishedAt = &dt
	}
	if l.RenewedAt != nil {
		dt := primitive.NewDateTimeFromTime(*l.RenewedAt)
		doc.RenewedAt = &dt
	}
	if l.ID != "" {
		objID, err := primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing ID format: %w", err)
		}
		doc.ID = objID
	}
	return doc, nil
}

func toListingEntity(doc *listingDocument) *domain.Listing {
	l := &domain.Listing{
		ID:            doc.ID.Hex(),
		OwnerID:       doc.OwnerID,
		Title:         doc.Title,
		Details:       doc.Details,
		Type:          domain.ListingType(doc.ListingType),
		Allow:         domain.AllowScope(doc.Allow),
		State:         domain.State(doc.State),
		Categories:    doc.Categories,
		Subcategories: doc.Subcategories,
		Photos:        doc.Photos,
		ExpiresAt:     doc.ExpiresAt.Time(),
		CreatedAt:     doc.CreatedAt.Time(),
		UpdatedAt:     doc.UpdatedAt.Time(),
		Version:       doc.Version,
	}
	if doc.PublishedAt != nil {
		t := doc.PublishedAt.Time()
		l.PublishedAt = &t
	}
	if doc.RenewedAt != nil {
		t := doc.RenewedAt.Time()
		l.RenewedAt = &t
	}
	return l
}

func (r *ListingMongoRepository) Create(ctx context.Context, listing *domain.Listing) (string, error) {
	doc, err := toListingDocument(listing)
	if err != nil {
		return "", err
	}

	res, err := r.db.Collection(listingCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create listing in mongo: %w", err)
	}

	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *ListingMongoRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	var doc listingDocument
	err = r.db.Collection(listingCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing by id from mongo: %w", err)
	}
	return toListingEntity(&doc), nil
}

func (r *ListingMongoRepository) Update(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("listing ID is required for update")
	}

	update := bson.M{"$set": bson.M{
		"title":         doc.Title,
		"details":       doc.Details,
		"categories":    doc.Categories,
		"subcategories": doc.Subcategories,
		"photos":        doc.Photos,
		"expires_at":    doc.ExpiresAt,
		"updated_at":    doc.UpdatedAt,
	}}

	res, err := r.db.Collection(listingCollectionName).UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update listing in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// UpdateState writes the lifecycle state guarded by the version the listing
// was loaded with. A concurrent transition bumps the stored version first,
// making this write match nothing.
func (r *ListingMongoRepository) UpdateState(ctx context.Context, listing *domain.Listing) error {
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("listing ID is required for state update")
	}

	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	update := bson.M{
		"$set": bson.M{
			"state":        doc.State,
			"published_at": doc.PublishedAt,
			"renewed_at":   doc.RenewedAt,
			"updated_at":   doc.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.db.Collection(listingCollectionName).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing state in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the listing vanished or someone else transitioned it first.
		exists, err := r.exists(ctx, doc.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrListingNotFound
		}
		return domain.ErrConcurrentModification
	}

	listing.Version++
	return nil
}

func (r *ListingMongoRepository) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.db.Collection(listingCollectionName).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check listing existence in mongo: %w", err)
	}
	return count > 0, nil
}

func (r *ListingMongoRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"owner_id": ownerID}, findOptions)
}

func (r *ListingMongoRepository) FindAutoExpired(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	filter := bson.M{
		"expires_at": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
		"state":      bson.M{"$in": autoExpireStateStrings()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *ListingMongoRepository) FindNoAutoExpire(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	filter := bson.M{
		"expires_at": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
		"state":      bson.M{"$nin": autoExpireStateStrings()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *ListingMongoRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*domain.Listing, error) {
	cursor, err := r.db.Collection(listingCollectionName).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listings from mongo: %w", err)
	}

	listings := make([]*domain.Listing, len(docs))
	for i, doc := range docs {
		listings[i] = toListingEntity(&doc)
	}
	return listings, nil
}

func autoExpireStateStrings() []string {
	states := domain.AutoExpireStates()
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
