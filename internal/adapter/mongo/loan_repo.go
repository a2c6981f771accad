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

const loanCollectionName = "loans"

type LoanMongoRepository struct {
	db *mongo.Database
}

func NewLoanMongoRepository(client *mongo.Client, dbName string) *LoanMongoRepository {
	return &LoanMongoRepository{db: client.Database(dbName)}
}

type loanDocument struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	ListingID  string              `bson:"listing_id"`
	BorrowerID string              `bson:"borrower_id"`
	LoanedAt   primitive.DateTime  `bson:"loaned_at"`
	ReturnedAt *primitive.DateTime `bson:"returned_at,omitempty"`
}

func toLoanEntity(doc *loanDocument) *domain.Loan {
	loan := &domain.Loan{
		ID:         doc.ID.Hex(),
		ListingID:  doc.ListingID,
		BorrowerID: doc.BorrowerID,
		LoanedAt:   doc.LoanedAt.Time(),
	}
	if doc.ReturnedAt != nil {
		t := doc.ReturnedAt.Time()
		loan.ReturnedAt = &t
	}
	return loan
}

func (r *LoanMongoRepository) Create(ctx context.Context, loan *domain.Loan) (string, error) {
	doc := loanDocument{
		ListingID:  loan.ListingID,
		BorrowerID: loan.BorrowerID,
		LoanedAt:   primitive.NewDateTimeFromTime(loan.LoanedAt),
	}

	res, err := r.db.Collection(loanCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create loan in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *LoanMongoRepository) MarkReturned(ctx context.Context, listingID string, returnedAt time.Time) error {
	filter := bson.M{"listing_id": listingID, "returned_at": nil}
	update := bson.M{"$set": bson.M{"returned_at": primitive.NewDateTimeFromTime(returnedAt)}}

	res, err := r.db.Collection(loanCollectionName).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark loan returned in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no active loan for listing %s", listingID)
	}
	return nil
}

func (r *LoanMongoRepository) FindActiveByListing(ctx context.Context, listingID string) (*domain.Loan, error) {
	filter := bson.M{"listing_id": listingID, "returned_at": nil}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "loaned_at", Value: -1}})

	var doc loanDocument
	err := r.db.Collection(loanCollectionName).FindOne(ctx, filter, findOptions).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active loan in mongo: %w", err)
	}
	return toLoanEntity(&doc), nil
}
