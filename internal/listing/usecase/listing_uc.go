package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/newscloud/classifieds-service/internal/listing/domain"
	"github.com/newscloud/classifieds-service/internal/port/cache"
	"github.com/newscloud/classifieds-service/internal/tagging"
	"go.uber.org/zap"
)

var ErrForbidden = errors.New("user not authorized to perform this action")

// Clock supplies the current time; injected so lifecycle tests are
// deterministic.
type Clock func() time.Time

// EventPublisher receives lifecycle bookkeeping. Implementations must treat
// delivery as best-effort: the state machine has already committed by the
// time these fire, and failures are logged, not propagated.
type EventPublisher interface {
	PublishListingCreated(ctx context.Context, listing *domain.Listing) error
	PublishListingPublished(ctx context.Context, listing *domain.Listing) error
	PublishListingRenewed(ctx context.Context, listing *domain.Listing) error
	// PublishExpireBookkeeping fires whenever a transition requires expire
	// bookkeeping (promotion revocation and the like happen downstream).
	PublishExpireBookkeeping(ctx context.Context, listing *domain.Listing, event domain.Event) error
}

type ListingUsecase struct {
	repo      domain.ListingRepository
	loans     domain.LoanRepository
	tags      tagging.Registry
	graph     domain.SocialGraph
	publisher EventPublisher
	cache     cache.Repository
	logger    *zap.Logger
	now       Clock
}

func NewListingUsecase(
	repo domain.ListingRepository,
	loans domain.LoanRepository,
	tags tagging.Registry,
	graph domain.SocialGraph,
	publisher EventPublisher,
	cacheRepo cache.Repository,
	logger *zap.Logger,
	now Clock,
) *ListingUsecase {
	if now == nil {
		now = time.Now
	}
	return &ListingUsecase{
		repo:      repo,
		loans:     loans,
		tags:      tags,
		graph:     graph,
		publisher: publisher,
		cache:     cacheRepo,
		logger:    logger,
		now:       now,
	}
}

func listingCacheKey(id string) string {
	return fmt.Sprintf("listing:%s", id)
}

const listingCacheTTL = 5 * time.Minute

func (uc *ListingUsecase) CreateListing(ctx context.Context, in domain.CreateListingInput) (*domain.Listing, error) {
	uc.logger.Info("ListingUsecase.CreateListing: creating new listing",
		zap.String("owner_id", in.OwnerID), zap.String("title", in.Title))

	categories, err := uc.tags.RegisteredTags(ctx, tagging.ContextCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered categories: %w", err)
	}
	subcategories, err := uc.tags.RegisteredTags(ctx, tagging.ContextSubcategory)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered subcategories: %w", err)
	}

	listing, err := domain.NewListing(in, uc.now(), categories, subcategories)
	if err != nil {
		uc.logger.Warn("ListingUsecase.CreateListing: validation failed",
			zap.String("owner_id", in.OwnerID), zap.Error(err))
		return nil, err
	}

	id, err := uc.repo.Create(ctx, listing)
	if err != nil {
		uc.logger.Error("ListingUsecase.CreateListing: failed to create listing",
			zap.String("owner_id", in.OwnerID), zap.Error(err))
		return nil, err
	}
	listing.ID = id

	if err := uc.publisher.PublishListingCreated(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase.CreateListing: failed to publish created event",
			zap.String("listing_id", id), zap.Error(err))
	}
	uc.cacheListing(ctx, listing)

	return listing, nil
}

func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if data, err := uc.cache.Get(ctx, listingCacheKey(id)); err == nil {
		var cached domain.Listing
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		uc.logger.Warn("ListingUsecase.GetListing: corrupt cache entry",
			zap.String("listing_id", id))
	}

	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.cacheListing(ctx, listing)
	return listing, nil
}

func (uc *ListingUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return uc.repo.FindByOwner(ctx, ownerID)
}

// IsAllowed answers whether an actor may view the listing. Empty actorID
// means an anonymous viewer.
func (uc *ListingUsecase) IsAllowed(ctx context.Context, listingID, actorID string) (bool, error) {
	listing, err := uc.GetListing(ctx, listingID)
	if err != nil {
		return false, err
	}
	return domain.IsAllowed(ctx, listing, actorID, uc.graph)
}

func (uc *ListingUsecase) Publish(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventPublish)
}

func (uc *ListingUsecase) Renew(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventRenew)
}

// Unhide brings a hidden listing back; it is the renew event under a
// friendlier name.
func (uc *ListingUsecase) Unhide(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventRenew)
}

func (uc *ListingUsecase) Close(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventClose)
}

func (uc *ListingUsecase) MarkSold(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventMarkSold)
}

func (uc *ListingUsecase) Hide(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	return uc.fireAsOwner(ctx, id, actorID, domain.EventHide)
}

// Return closes the active loan and moves the listing to hidden so the
// owner can inspect it before renewing.
func (uc *ListingUsecase) Return(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	listing, err := uc.fireAsOwner(ctx, id, actorID, domain.EventReturn)
	if err != nil {
		return nil, err
	}
	if err := uc.loans.MarkReturned(ctx, id, uc.now()); err != nil {
		uc.logger.Error("ListingUsecase.Return: failed to close loan record",
			zap.String("listing_id", id), zap.Error(err))
	}
	return listing, nil
}

// Expire is fired by the system, not by users, so it skips the owner check.
// The expiration sweep is its main caller.
func (uc *ListingUsecase) Expire(ctx context.Context, id string) (*domain.Listing, error) {
	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.fire(ctx, listing, domain.EventExpire)
}

// LoanTo records the loan relationship and then fires loan_out. The loan row
// is written first; if the transition is rejected the loan is not marked
// active because the listing never left available.
func (uc *ListingUsecase) LoanTo(ctx context.Context, id, actorID, borrowerID string) (*domain.Listing, error) {
	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwner(actorID) {
		uc.logger.Warn("ListingUsecase.LoanTo: forbidden",
			zap.String("listing_id", id), zap.String("actor_id", actorID))
		return nil, ErrForbidden
	}
	if borrowerID == "" {
		verr := &domain.ValidationError{}
		verr.Add("borrower_id", "is required")
		return nil, verr
	}
	if !listing.CanFire(domain.EventLoanOut) {
		return nil, &domain.InvalidTransitionError{Event: domain.EventLoanOut, State: listing.State}
	}

	if _, err := uc.loans.Create(ctx, &domain.Loan{
		ListingID:  id,
		BorrowerID: borrowerID,
		LoanedAt:   uc.now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record loan: %w", err)
	}

	return uc.fire(ctx, listing, domain.EventLoanOut)
}

func (uc *ListingUsecase) fireAsOwner(ctx context.Context, id, actorID string, event domain.Event) (*domain.Listing, error) {
	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwner(actorID) {
		uc.logger.Warn("ListingUsecase: forbidden lifecycle event",
			zap.String("listing_id", id), zap.String("actor_id", actorID),
			zap.String("event", string(event)))
		return nil, ErrForbidden
	}
	return uc.fire(ctx, listing, event)
}

// fire runs the event through the state machine, persists the new state with
// the optimistic version guard, and only then dispatches side effects.
func (uc *ListingUsecase) fire(ctx context.Context, listing *domain.Listing, event domain.Event) (*domain.Listing, error) {
	effects, err := listing.Apply(event, uc.now())
	if err != nil {
		uc.logger.Info("ListingUsecase: lifecycle event rejected",
			zap.String("listing_id", listing.ID), zap.String("event", string(event)),
			zap.String("state", string(listing.State)))
		return nil, err
	}

	if err := uc.repo.UpdateState(ctx, listing); err != nil {
		uc.logger.Error("ListingUsecase: failed to persist state transition",
			zap.String("listing_id", listing.ID), zap.String("event", string(event)),
			zap.Error(err))
		return nil, err
	}

	uc.runEffects(ctx, listing, event, effects)
	uc.cacheListing(ctx, listing)

	uc.logger.Info("ListingUsecase: lifecycle event applied",
		zap.String("listing_id", listing.ID), zap.String("event", string(event)),
		zap.String("state", string(listing.State)))
	return listing, nil
}

func (uc *ListingUsecase) runEffects(ctx context.Context, listing *domain.Listing, event domain.Event, effects []domain.SideEffect) {
	for _, effect := range effects {
		var err error
		switch effect {
		case domain.EffectExpireBookkeeping:
			err = uc.publisher.PublishExpireBookkeeping(ctx, listing, event)
		case domain.EffectPublished:
			err = uc.publisher.PublishListingPublished(ctx, listing)
		case domain.EffectRenewed:
			err = uc.publisher.PublishListingRenewed(ctx, listing)
		}
		if err != nil {
			uc.logger.Error("ListingUsecase: side effect delivery failed",
				zap.String("listing_id", listing.ID), zap.String("effect", string(effect)),
				zap.Error(err))
		}
	}
}

func (uc *ListingUsecase) cacheListing(ctx context.Context, listing *domain.Listing) {
	data, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, listingCacheKey(listing.ID), data, listingCacheTTL); err != nil {
		uc.logger.Warn("ListingUsecase: failed to cache listing",
			zap.String("listing_id", listing.ID), zap.Error(err))
	}
}
