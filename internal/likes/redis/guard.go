package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/utils"
)

const (
	toggleKeyPrefix = "like_toggle:"
	defaultGuardTTL = 5 * time.Second
)

// ToggleGuard marks a like toggle for one (image, user) pair as in flight so a
// double click cannot run two toggles at once.
type ToggleGuard struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewToggleGuard(client *redis.Client, ttl time.Duration, log *logger.Logger) *ToggleGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &ToggleGuard{Client: client, TTL: ttl, Logger: log}
}

func toggleKey(imageID, userID string) string {
	return fmt.Sprintf("%s%s:%s", toggleKeyPrefix, imageID, userID)
}

// Acquire returns a token when the pair was free, or ok=false if another toggle holds it.
func (g *ToggleGuard) Acquire(ctx context.Context, imageID, userID string) (string, bool, error) {
	token := utils.NewID()
	ok, err := g.Client.SetNX(ctx, toggleKey(imageID, userID), token, g.TTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire like guard: %w", err)
	}
	if !ok {
		g.Logger.LogLike("IN_FLIGHT", imageID, "toggle already running for "+userID)
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the pair, but only if the guard still belongs to token.
func (g *ToggleGuard) Release(ctx context.Context, imageID, userID, token string) error {
	key := toggleKey(imageID, userID)
	val, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		return g.Client.Del(ctx, key).Err()
	}
	return nil
}
