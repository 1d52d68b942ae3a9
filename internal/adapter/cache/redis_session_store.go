package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Regera24/AstraMindProject/internal/repository"
)

const refreshKeyPrefix = "auth:refresh:"

// RedisSessionStore implements repository.SessionStore backed by Redis. The
// key space is partitioned by account id, so concurrent logins for different
// accounts never contend; for the same account the last SET wins.
type RedisSessionStore struct {
	client redis.UniversalClient
}

var _ repository.SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore constructs a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Set stores the refresh token under the account key with the given TTL,
// overwriting any prior value.
func (s *RedisSessionStore) Set(ctx context.Context, accountID int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(accountID), token, ttl).Err(); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// Get loads the live refresh token, returning "" when none is stored.
func (s *RedisSessionStore) Get(ctx context.Context, accountID int64) (string, error) {
	value, err := s.client.Get(ctx, refreshKey(accountID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return value, nil
}

// Delete removes the stored refresh token. Deleting an absent key is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, accountID int64) error {
	if err := s.client.Del(ctx, refreshKey(accountID)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// Exists reports whether a refresh token is currently stored for the account.
func (s *RedisSessionStore) Exists(ctx context.Context, accountID int64) (bool, error) {
	n, err := s.client.Exists(ctx, refreshKey(accountID)).Result()
	if err != nil {
		return false, fmt.Errorf("check refresh token: %w", err)
	}
	return n > 0, nil
}

func refreshKey(accountID int64) string {
	return fmt.Sprintf("%s%d", refreshKeyPrefix, accountID)
}
