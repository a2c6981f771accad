package domain

import "context"

type ContentRepository interface {
	Create(ctx context.Context, content *Content) (string, error)
	GetByID(ctx context.Context, id string) (*Content, error)
	Update(ctx context.Context, content *Content) error
	// Newest orders by creation time descending.
	Newest(ctx context.Context, limit int) ([]*Content, error)
	// Top orders by votes tally, then creation time, descending.
	Top(ctx context.Context, limit int) ([]*Content, error)
	TopArticles(ctx context.Context, limit int) ([]*Content, error)
	// IncrementVotes atomically adjusts the tally and returns the new value.
	IncrementVotes(ctx context.Context, id string, delta int) (int64, error)
}

type VoteRepository interface {
	// Add records a user's vote; ErrDuplicateVote when the user already
	// voted on this item.
	Add(ctx context.Context, contentID, userID string) error
	Remove(ctx context.Context, contentID, userID string) error
	Count(ctx context.Context, contentID string) (int64, error)
}
