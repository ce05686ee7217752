package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptsPrefix = "safarihub:"

// LoginAttempts stores expiring failure counters in Redis
type LoginAttempts struct {
	client *redis.Client
}

// NewLoginAttempts creates a counter store on client
func NewLoginAttempts(client *redis.Client) *LoginAttempts {
	return &LoginAttempts{client: client}
}

// Attempts returns the counter for key and its remaining window
func (a *LoginAttempts) Attempts(ctx context.Context, key string) (int64, time.Duration, error) {
	key = attemptsPrefix + key
	count, err := a.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := a.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	return count, ttl, nil
}

// Hit increments key; the first hit opens the window
func (a *LoginAttempts) Hit(ctx context.Context, key string, window time.Duration) error {
	key = attemptsPrefix + key
	count, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return a.client.Expire(ctx, key, window).Err()
	}
	return nil
}

// Clear removes key
func (a *LoginAttempts) Clear(ctx context.Context, key string) error {
	return a.client.Del(ctx, attemptsPrefix+key).Err()
}
