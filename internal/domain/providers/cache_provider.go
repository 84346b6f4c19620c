package providers

import (
	"context"
)

// CacheProvider defines the interface for caching and counter operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments a counter, starting its TTL window on
	// first use, and returns the new count. Used for rate limiting.
	Increment(ctx context.Context, key string, windowSeconds int) (int64, error)
}

// SessionStore holds refresh tokens keyed by user id
type SessionStore interface {
	StoreRefreshToken(ctx context.Context, userID, refreshToken string, ttlSeconds int) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
}
