package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newscloud/classifieds-service/internal/listing/domain"
	"go.uber.org/zap"
)

// Mailer sends owner notifications. Delivery failures never fail the sweep.
type Mailer interface {
	SendListingExpiredEmail(toEmail, listingTitle string) error
}

// UserDirectory resolves a user's contact email.
type UserDirectory interface {
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

// Expirer fires the system expire event on a single listing.
type Expirer interface {
	Expire(ctx context.Context, id string) (*domain.Listing, error)
}

// ExpirationSweeper forces overdue listings into expired. Listings already
// sold, loaned out, closed or expired are never touched; those are reported
// through OverdueButNotAutoExpired instead.
type ExpirationSweeper struct {
	repo    domain.ListingRepository
	expirer Expirer
	mailer  Mailer
	users   UserDirectory
	logger  *zap.Logger
}

func NewExpirationSweeper(
	repo domain.ListingRepository,
	expirer Expirer,
	mailer Mailer,
	users UserDirectory,
	logger *zap.Logger,
) *ExpirationSweeper {
	return &ExpirationSweeper{
		repo:    repo,
		expirer: expirer,
		mailer:  mailer,
		users:   users,
		logger:  logger,
	}
}

// SweepExpired transitions every overdue listing in a sweepable state into
// expired and returns how many it moved. A failure on one listing is
// collected and the sweep moves on; the aggregate error is returned next to
// the count of successful transitions.
func (s *ExpirationSweeper) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.repo.FindAutoExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query overdue listings: %w", err)
	}

	var count int
	var failures []error
	for _, listing := range overdue {
		expired, err := s.expirer.Expire(ctx, listing.ID)
		if err != nil {
			s.logger.Error("ExpirationSweeper.SweepExpired: failed to expire listing",
				zap.String("listing_id", listing.ID), zap.Error(err))
			failures = append(failures, fmt.Errorf("listing %s: %w", listing.ID, err))
			continue
		}
		count++
		s.notifyOwner(ctx, expired)
	}

	s.logger.Info("ExpirationSweeper.SweepExpired: sweep finished",
		zap.Int("expired", count), zap.Int("failed", len(failures)))
	return count, errors.Join(failures...)
}

// OverdueButNotAutoExpired reports overdue listings the sweep must leave
// alone, for alerting.
func (s *ExpirationSweeper) OverdueButNotAutoExpired(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	return s.repo.FindNoAutoExpire(ctx, now)
}

func (s *ExpirationSweeper) notifyOwner(ctx context.Context, listing *domain.Listing) {
	email, err := s.users.GetEmailByID(ctx, listing.OwnerID)
	if err != nil || email == "" {
		s.logger.Warn("ExpirationSweeper: could not resolve owner email",
			zap.String("listing_id", listing.ID), zap.String("owner_id", listing.OwnerID),
			zap.Error(err))
		return
	}
	if err := s.mailer.SendListingExpiredEmail(email, listing.Title); err != nil {
		s.logger.Error("ExpirationSweeper: failed to send expiry email",
			zap.String("listing_id", listing.ID), zap.Error(err))
	}
}
