package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newscloud/classifieds-service/internal/listing/domain"
	"github.com/newscloud/classifieds-service/internal/tagging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) (string, error) {
	args := m.Called(ctx, listing)
	return args.String(0), args.Error(1)
}
func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) UpdateState(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindAutoExpired(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindNoAutoExpire(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockLoanRepository struct{ mock.Mock }

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) (string, error) {
	args := m.Called(ctx, loan)
	return args.String(0), args.Error(1)
}
func (m *MockLoanRepository) MarkReturned(ctx context.Context, listingID string, returnedAt time.Time) error {
	args := m.Called(ctx, listingID, returnedAt)
	return args.Error(0)
}
func (m *MockLoanRepository) FindActiveByListing(ctx context.Context, listingID string) (*domain.Loan, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishListingCreated(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishListingPublished(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishListingRenewed(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishExpireBookkeeping(ctx context.Context, listing *domain.Listing, event domain.Event) error {
	args := m.Called(ctx, listing, event)
	return args.Error(0)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type stubGraph struct{}

func (stubGraph) IsFriend(context.Context, string, string) (bool, error)         { return false, nil }
func (stubGraph) IsFriendOfFriend(context.Context, string, string) (bool, error) { return false, nil }

func seededRegistry(t *testing.T) *tagging.MemoryRegistry {
	t.Helper()
	reg := tagging.NewMemoryRegistry()
	ctx := context.Background()
	assert.NoError(t, reg.RegisterTag(ctx, "furniture", tagging.ContextCategory))
	assert.NoError(t, reg.RegisterTag(ctx, "chairs", tagging.ContextSubcategory))
	return reg
}

type ucFixture struct {
	repo      *MockListingRepository
	loans     *MockLoanRepository
	publisher *MockEventPublisher
	cache     *MockCacheRepository
	uc        *ListingUsecase
	now       time.Time
}

func newFixture(t *testing.T) *ucFixture {
	t.Helper()
	f := &ucFixture{
		repo:      new(MockListingRepository),
		loans:     new(MockLoanRepository),
		publisher: new(MockEventPublisher),
		cache:     new(MockCacheRepository),
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	logger := zap.NewNop()
	f.uc = NewListingUsecase(
		f.repo, f.loans, seededRegistry(t), stubGraph{}, f.publisher, f.cache,
		logger, func() time.Time { return f.now },
	)
	return f
}

func TestListingUsecase_CreateListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.Listing")).Return("listing-1", nil).Once()
	f.publisher.On("PublishListingCreated", ctx, mock.AnythingOfType("*domain.Listing")).Return(nil).Once()
	f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()

	listing, err := f.uc.CreateListing(ctx, domain.CreateListingInput{
		OwnerID:    "user-1",
		Title:      "Old armchair",
		Details:    "Comfy.",
		Type:       domain.TypeSale,
		Allow:      domain.AllowAll,
		Categories: []string{"furniture"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "listing-1", listing.ID)
	assert.Equal(t, domain.StateUnpublished, listing.State)
	assert.Equal(t, f.now.Add(domain.DefaultListingLifetime), listing.ExpiresAt)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestListingUsecase_CreateListing_ValidationStopsBeforeRepo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, domain.CreateListingInput{
		OwnerID: "user-1",
		Title:   "",
		Details: "Comfy.",
		Type:    domain.TypeSale,
		Allow:   domain.AllowAll,
	})

	assert.Nil(t, listing)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListingUsecase_Publish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeSale,
		Allow: domain.AllowAll, State: domain.StateUnpublished}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
	f.repo.On("UpdateState", ctx, stored).Return(nil).Once()
	f.publisher.On("PublishExpireBookkeeping", ctx, stored, domain.EventPublish).Return(nil).Once()
	f.publisher.On("PublishListingPublished", ctx, stored).Return(nil).Once()
	f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()

	listing, err := f.uc.Publish(ctx, "listing-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.StateAvailable, listing.State)
	assert.NotNil(t, listing.PublishedAt)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestListingUsecase_Publish_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", State: domain.StateUnpublished}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()

	listing, err := f.uc.Publish(ctx, "listing-1", "intruder")

	assert.Nil(t, listing)
	assert.ErrorIs(t, err, ErrForbidden)
	f.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything)
}

func TestListingUsecase_MarkSold_InvalidFromUnpublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", State: domain.StateUnpublished}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()

	listing, err := f.uc.MarkSold(ctx, "listing-1", "user-1")

	assert.Nil(t, listing)
	var terr *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.EventMarkSold, terr.Event)
	assert.Equal(t, domain.StateUnpublished, stored.State)
	f.repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishExpireBookkeeping", mock.Anything, mock.Anything, mock.Anything)
}

func TestListingUsecase_Fire_ConcurrentModification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", State: domain.StateAvailable}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
	f.repo.On("UpdateState", ctx, stored).Return(domain.ErrConcurrentModification).Once()

	_, err := f.uc.MarkSold(ctx, "listing-1", "user-1")

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	f.publisher.AssertNotCalled(t, "PublishExpireBookkeeping", mock.Anything, mock.Anything, mock.Anything)
}

func TestListingUsecase_LoanTo(t *testing.T) {
	ctx := context.Background()

	t.Run("records loan then transitions", func(t *testing.T) {
		f := newFixture(t)
		stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeLoan,
			Allow: domain.AllowFriends, State: domain.StateAvailable}

		f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
		f.loans.On("Create", ctx, mock.AnythingOfType("*domain.Loan")).Return("loan-1", nil).Once()
		f.repo.On("UpdateState", ctx, stored).Return(nil).Once()
		f.publisher.On("PublishExpireBookkeeping", ctx, stored, domain.EventLoanOut).Return(nil).Twice()
		f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()

		listing, err := f.uc.LoanTo(ctx, "listing-1", "user-1", "borrower-1")

		assert.NoError(t, err)
		assert.Equal(t, domain.StateLoanedOut, listing.State)
		f.loans.AssertExpectations(t)
	})

	t.Run("invalid state leaves no loan behind", func(t *testing.T) {
		f := newFixture(t)
		stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeLoan,
			State: domain.StateHidden}

		f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()

		_, err := f.uc.LoanTo(ctx, "listing-1", "user-1", "borrower-1")

		var terr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
		f.loans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing borrower", func(t *testing.T) {
		f := newFixture(t)
		stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeLoan,
			State: domain.StateAvailable}

		f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()

		_, err := f.uc.LoanTo(ctx, "listing-1", "user-1", "")

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestListingUsecase_Unhide_IsRenew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeFree,
		Allow: domain.AllowAll, State: domain.StateHidden}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
	f.repo.On("UpdateState", ctx, stored).Return(nil).Once()
	f.publisher.On("PublishExpireBookkeeping", ctx, stored, domain.EventRenew).Return(nil).Once()
	f.publisher.On("PublishListingPublished", ctx, stored).Return(nil).Once()
	f.publisher.On("PublishListingRenewed", ctx, stored).Return(nil).Once()
	f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()

	listing, err := f.uc.Unhide(ctx, "listing-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.StateAvailable, listing.State)
	assert.NotNil(t, listing.RenewedAt)
	f.publisher.AssertExpectations(t)
}

func TestListingUsecase_GetListing_CacheMissFallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", State: domain.StateAvailable}

	f.cache.On("Get", ctx, listingCacheKey("listing-1")).Return(nil, errors.New("miss")).Once()
	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
	f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()

	listing, err := f.uc.GetListing(ctx, "listing-1")

	assert.NoError(t, err)
	assert.Equal(t, "listing-1", listing.ID)
	f.repo.AssertExpectations(t)
}

func TestListingUsecase_Return_ClosesLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeLoan,
		Allow: domain.AllowAll, State: domain.StateLoanedOut}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()
	f.repo.On("UpdateState", ctx, stored).Return(nil).Once()
	f.publisher.On("PublishExpireBookkeeping", ctx, stored, domain.EventReturn).Return(nil).Once()
	f.publisher.On("PublishListingRenewed", ctx, stored).Return(nil).Once()
	f.cache.On("Set", ctx, listingCacheKey("listing-1"), mock.Anything, listingCacheTTL).Return(nil).Once()
	f.loans.On("MarkReturned", ctx, "listing-1", f.now).Return(nil).Once()

	listing, err := f.uc.Return(ctx, "listing-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.StateHidden, listing.State)
	f.loans.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestListingUsecase_Return_RejectedLeavesLoanOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &domain.Listing{ID: "listing-1", OwnerID: "user-1", Type: domain.TypeLoan,
		Allow: domain.AllowAll, State: domain.StateAvailable}

	f.repo.On("GetByID", ctx, "listing-1").Return(stored, nil).Once()

	_, err := f.uc.Return(ctx, "listing-1", "user-1")

	var terr *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
	f.loans.AssertNotCalled(t, "MarkReturned", mock.Anything, mock.Anything, mock.Anything)
}
