package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/newscloud/classifieds-service/internal/content/domain"
	"github.com/newscloud/classifieds-service/internal/port/cache"
	"go.uber.org/zap"
)

type Clock func() time.Time

type ContentPublisher interface {
	PublishContentCreated(ctx context.Context, content *domain.Content) error
}

type ContentUsecase struct {
	repo      domain.ContentRepository
	votes     domain.VoteRepository
	publisher ContentPublisher
	cache     cache.Repository
	logger    *zap.Logger
	now       Clock
}

func NewContentUsecase(
	repo domain.ContentRepository,
	votes domain.VoteRepository,
	publisher ContentPublisher,
	cacheRepo cache.Repository,
	logger *zap.Logger,
	now Clock,
) *ContentUsecase {
	if now == nil {
		now = time.Now
	}
	return &ContentUsecase{
		repo:      repo,
		votes:     votes,
		publisher: publisher,
		cache:     cacheRepo,
		logger:    logger,
		now:       now,
	}
}

const (
	newestCacheKey  = "content:newest"
	topCacheKey     = "content:top"
	listCacheTTL    = time.Minute
	DefaultPageSize = 10
)

func (uc *ContentUsecase) CreateContent(ctx context.Context, in domain.CreateContentInput) (*domain.Content, error) {
	content, err := domain.NewContent(in, uc.now())
	if err != nil {
		uc.logger.Warn("ContentUsecase.CreateContent: validation failed",
			zap.String("author_id", in.AuthorID), zap.Error(err))
		return nil, err
	}

	id, err := uc.repo.Create(ctx, content)
	if err != nil {
		uc.logger.Error("ContentUsecase.CreateContent: failed to create content",
			zap.String("author_id", in.AuthorID), zap.Error(err))
		return nil, err
	}
	content.ID = id

	if err := uc.publisher.PublishContentCreated(ctx, content); err != nil {
		uc.logger.Error("ContentUsecase.CreateContent: failed to publish created event",
			zap.String("content_id", id), zap.Error(err))
	}
	uc.invalidateLists(ctx)

	return content, nil
}

func (uc *ContentUsecase) GetContent(ctx context.Context, id string) (*domain.Content, error) {
	return uc.repo.GetByID(ctx, id)
}

// Vote registers a user's vote once and bumps the tally. Voting twice is a
// business rejection, not a fault.
func (uc *ContentUsecase) Vote(ctx context.Context, contentID, userID string) (int64, error) {
	if err := uc.votes.Add(ctx, contentID, userID); err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to record vote: %w", err)
	}
	tally, err := uc.repo.IncrementVotes(ctx, contentID, 1)
	if err != nil {
		uc.logger.Error("ContentUsecase.Vote: failed to bump tally",
			zap.String("content_id", contentID), zap.Error(err))
		return 0, err
	}
	uc.invalidateLists(ctx)
	return tally, nil
}

func (uc *ContentUsecase) Unvote(ctx context.Context, contentID, userID string) (int64, error) {
	if err := uc.votes.Remove(ctx, contentID, userID); err != nil {
		return 0, err
	}
	tally, err := uc.repo.IncrementVotes(ctx, contentID, -1)
	if err != nil {
		return 0, err
	}
	uc.invalidateLists(ctx)
	return tally, nil
}

func (uc *ContentUsecase) Newest(ctx context.Context, limit int) ([]*domain.Content, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return uc.cachedList(ctx, fmt.Sprintf("%s:%d", newestCacheKey, limit), limit, uc.repo.Newest)
}

func (uc *ContentUsecase) Top(ctx context.Context, limit int) ([]*domain.Content, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return uc.cachedList(ctx, fmt.Sprintf("%s:%d", topCacheKey, limit), limit, uc.repo.Top)
}

func (uc *ContentUsecase) TopArticles(ctx context.Context, limit int) ([]*domain.Content, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return uc.repo.TopArticles(ctx, limit)
}

func (uc *ContentUsecase) ToggleFeatured(ctx context.Context, id string) (*domain.Content, error) {
	content, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content.ToggleFeatured(uc.now())
	if err := uc.repo.Update(ctx, content); err != nil {
		return nil, err
	}
	uc.logger.Info("ContentUsecase.ToggleFeatured: featured flag flipped",
		zap.String("content_id", id), zap.Bool("is_featured", content.IsFeatured))
	return content, nil
}

func (uc *ContentUsecase) cachedList(ctx context.Context, key string, limit int, query func(context.Context, int) ([]*domain.Content, error)) ([]*domain.Content, error) {
	if data, err := uc.cache.Get(ctx, key); err == nil {
		var cached []*domain.Content
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	items, err := query(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(items); err == nil {
		if err := uc.cache.Set(ctx, key, data, listCacheTTL); err != nil {
			uc.logger.Warn("ContentUsecase: failed to cache list", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (uc *ContentUsecase) invalidateLists(ctx context.Context) {
	for _, key := range []string{newestCacheKey, topCacheKey} {
		for _, limit := range []int{DefaultPageSize} {
			if err := uc.cache.Delete(ctx, fmt.Sprintf("%s:%d", key, limit)); err != nil {
				uc.logger.Warn("ContentUsecase: failed to invalidate list cache",
					zap.String("key", key), zap.Error(err))
			}
		}
	}
}
