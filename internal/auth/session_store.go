package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// RevokedSessionPrefix namespaces revoked admin session ids in Redis
	RevokedSessionPrefix = "admin_session_revoked:"
	// RevocationBuffer keeps a revocation alive a little past token expiry to cover clock skew
	RevocationBuffer = 60 * time.Second
)

// RedisSessionStore remembers logged-out admin sessions until their tokens would expire anyway.
type RedisSessionStore struct {
	Client *redis.Client
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client, now: time.Now}
}

func (s *RedisSessionStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ttl := until.Sub(s.now()) + RevocationBuffer
	if ttl <= RevocationBuffer {
		ttl = RevocationBuffer
	}

	if err := s.Client.Set(ctx, RevokedSessionPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session revocation in Redis: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if s.Client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}

	n, err := s.Client.Exists(ctx, RevokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return n > 0, nil
}
