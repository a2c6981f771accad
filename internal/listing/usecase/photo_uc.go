package usecase

import (
	"context"
	"time"

	"github.com/newscloud/classifieds-service/internal/listing/domain"
	"go.uber.org/zap"
)

// Storage uploads photo bytes and returns a public URL.
type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

type PhotoUsecase struct {
	storage Storage
	repo    domain.ListingRepository
	logger  *zap.Logger
	now     Clock
}

func NewPhotoUsecase(storage Storage, repo domain.ListingRepository, logger *zap.Logger, now Clock) *PhotoUsecase {
	if now == nil {
		now = time.Now
	}
	return &PhotoUsecase{storage: storage, repo: repo, logger: logger, now: now}
}

func (uc *PhotoUsecase) UploadPhoto(ctx context.Context, listingID, actorID, fileName string, data []byte) (string, error) {
	listing, err := uc.repo.GetByID(ctx, listingID)
	if err != nil {
		return "", err
	}
	if !listing.IsOwner(actorID) {
		return "", ErrForbidden
	}

	url, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		uc.logger.Error("PhotoUsecase.UploadPhoto: upload failed",
			zap.String("listing_id", listingID), zap.Error(err))
		return "", err
	}

	listing.Photos = append(listing.Photos, url)
	listing.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, listing); err != nil {
		return "", err
	}
	return url, nil
}
