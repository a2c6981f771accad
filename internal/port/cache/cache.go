package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("key not found in cache")

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
