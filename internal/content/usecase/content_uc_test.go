package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newscloud/classifieds-service/internal/content/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockContentRepository struct{ mock.Mock }

func (m *MockContentRepository) Create(ctx context.Context, content *domain.Content) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}
func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Content), args.Error(1)
}
func (m *MockContentRepository) Update(ctx context.Context, content *domain.Content) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}
func (m *MockContentRepository) Newest(ctx context.Context, limit int) ([]*domain.Content, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Content), args.Error(1)
}
func (m *MockContentRepository) Top(ctx context.Context, limit int) ([]*domain.Content, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Content), args.Error(1)
}
func (m *MockContentRepository) TopArticles(ctx context.Context, limit int) ([]*domain.Content, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Content), args.Error(1)
}
func (m *MockContentRepository) IncrementVotes(ctx context.Context, id string, delta int) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

type MockVoteRepository struct{ mock.Mock }

func (m *MockVoteRepository) Add(ctx context.Context, contentID, userID string) error {
	args := m.Called(ctx, contentID, userID)
	return args.Error(0)
}
func (m *MockVoteRepository) Remove(ctx context.Context, contentID, userID string) error {
	args := m.Called(ctx, contentID, userID)
	return args.Error(0)
}
func (m *MockVoteRepository) Count(ctx context.Context, contentID string) (int64, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockContentPublisher struct{ mock.Mock }

func (m *MockContentPublisher) PublishContentCreated(ctx context.Context, content *domain.Content) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

type MockListCache struct{ mock.Mock }

func (m *MockListCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockListCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockListCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestContentUsecase_CreateContent(t *testing.T) {
	ctx := context.Background()
	repo := new(MockContentRepository)
	votes := new(MockVoteRepository)
	pub := new(MockContentPublisher)
	cacheRepo := new(MockListCache)
	uc := NewContentUsecase(repo, votes, pub, cacheRepo, zap.NewNop(), nil)

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Content")).Return("content-1", nil).Once()
	pub.On("PublishContentCreated", ctx, mock.AnythingOfType("*domain.Content")).Return(nil).Once()
	cacheRepo.On("Delete", ctx, mock.Anything).Return(nil)

	content, err := uc.CreateContent(ctx, domain.CreateContentInput{
		AuthorID: "user-1",
		Title:    "Bridge reopens",
		Caption:  "After a year of repairs.",
		URL:      "https://example.com/bridge",
	})

	assert.NoError(t, err)
	assert.Equal(t, "content-1", content.ID)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestContentUsecase_CreateContent_InvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := new(MockContentRepository)
	uc := NewContentUsecase(repo, new(MockVoteRepository), new(MockContentPublisher), new(MockListCache), zap.NewNop(), nil)

	_, err := uc.CreateContent(ctx, domain.CreateContentInput{Title: "no caption"})

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContentUsecase_Vote(t *testing.T) {
	ctx := context.Background()

	t.Run("first vote bumps tally", func(t *testing.T) {
		repo := new(MockContentRepository)
		votes := new(MockVoteRepository)
		cacheRepo := new(MockListCache)
		uc := NewContentUsecase(repo, votes, new(MockContentPublisher), cacheRepo, zap.NewNop(), nil)

		votes.On("Add", ctx, "content-1", "user-1").Return(nil).Once()
		repo.On("IncrementVotes", ctx, "content-1", 1).Return(int64(4), nil).Once()
		cacheRepo.On("Delete", ctx, mock.Anything).Return(nil)

		tally, err := uc.Vote(ctx, "content-1", "user-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(4), tally)
	})

	t.Run("duplicate vote leaves tally alone", func(t *testing.T) {
		repo := new(MockContentRepository)
		votes := new(MockVoteRepository)
		uc := NewContentUsecase(repo, votes, new(MockContentPublisher), new(MockListCache), zap.NewNop(), nil)

		votes.On("Add", ctx, "content-1", "user-1").Return(domain.ErrDuplicateVote).Once()

		_, err := uc.Vote(ctx, "content-1", "user-1")

		assert.ErrorIs(t, err, domain.ErrDuplicateVote)
		repo.AssertNotCalled(t, "IncrementVotes", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestContentUsecase_Top_UsesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockContentRepository)
	cacheRepo := new(MockListCache)
	uc := NewContentUsecase(repo, new(MockVoteRepository), new(MockContentPublisher), cacheRepo, zap.NewNop(), nil)

	items := []*domain.Content{{ID: "content-1", Title: "Bridge reopens", Caption: "c", VotesTally: 12}}

	t.Run("miss falls through and fills", func(t *testing.T) {
		cacheRepo.On("Get", ctx, "content:top:10").Return(nil, errors.New("miss")).Once()
		repo.On("Top", ctx, 10).Return(items, nil).Once()
		cacheRepo.On("Set", ctx, "content:top:10", mock.Anything, listCacheTTL).Return(nil).Once()

		got, err := uc.Top(ctx, 0)

		assert.NoError(t, err)
		assert.Equal(t, items, got)
		repo.AssertExpectations(t)
	})
}

func TestContentUsecase_ToggleFeatured(t *testing.T) {
	ctx := context.Background()
	repo := new(MockContentRepository)
	uc := NewContentUsecase(repo, new(MockVoteRepository), new(MockContentPublisher), new(MockListCache), zap.NewNop(), nil)

	stored := &domain.Content{ID: "content-1", Title: "Bridge reopens"}
	repo.On("GetByID", ctx, "content-1").Return(stored, nil).Once()
	repo.On("Update", ctx, stored).Return(nil).Once()

	content, err := uc.ToggleFeatured(ctx, "content-1")

	assert.NoError(t, err)
	assert.True(t, content.IsFeatured)
	repo.AssertExpectations(t)
}
