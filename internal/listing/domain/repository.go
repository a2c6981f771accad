package domain

import (
	"context"
	"time"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) (string, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	// Update persists mutable attribute changes (title, details, photos,
	// tags). Lifecycle state goes through UpdateState only.
	Update(ctx context.Context, listing *Listing) error
	// UpdateState writes the listing's state and bookkeeping timestamps,
	// guarded by the listing's version. ErrConcurrentModification is
	// returned when the stored version no longer matches; on success the
	// in-memory version is bumped.
	UpdateState(ctx context.Context, listing *Listing) error
	FindByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	// FindAutoExpired returns listings past their expiry whose state the
	// sweep may force into expired.
	FindAutoExpired(ctx context.Context, now time.Time) ([]*Listing, error)
	// FindNoAutoExpire returns listings past their expiry the sweep must
	// leave alone (sold, loaned out, closed, already expired).
	FindNoAutoExpire(ctx context.Context, now time.Time) ([]*Listing, error)
}

// Loan records who borrowed a loanable listing.
type Loan struct {
	ID         string
	ListingID  string
	BorrowerID string
	LoanedAt   time.Time
	ReturnedAt *time.Time
}

type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) (string, error)
	MarkReturned(ctx context.Context, listingID string, returnedAt time.Time) error
	FindActiveByListing(ctx context.Context, listingID string) (*Loan, error)
}
