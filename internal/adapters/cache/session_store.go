package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	redisclient "github.com/carebridge/telehealth-backend/internal/infrastructure/clients/redis"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

const refreshTokenKeyPrefix = "session:refresh:"

// RedisSessionStore implements the SessionStore interface using Redis.
// One refresh token per user; issuing a new one replaces the old.
type RedisSessionStore struct {
	client *redisclient.Client
}

// NewRedisSessionStore creates a new Redis session store
func NewRedisSessionStore(client *redisclient.Client) providers.SessionStore {
	return &RedisSessionStore{
		client: client,
	}
}

// StoreRefreshToken stores a user's refresh token with a TTL
func (s *RedisSessionStore) StoreRefreshToken(ctx context.Context, userID, refreshToken string, ttlSeconds int) error {
	key := refreshTokenKeyPrefix + userID
	ttl := time.Duration(ttlSeconds) * time.Second
	if err := s.client.Client().Set(ctx, key, refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves a user's stored refresh token
func (s *RedisSessionStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	key := refreshTokenKeyPrefix + userID
	token, err := s.client.Client().Get(ctx, key).Result()
	if err == redis.Nil {
		return "", apperrors.NewNotFoundError("no active session for user")
	}
	if err != nil {
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	return token, nil
}

// DeleteRefreshToken removes a user's refresh token, ending the session
func (s *RedisSessionStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	key := refreshTokenKeyPrefix + userID
	if err := s.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
