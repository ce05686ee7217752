package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix  = "safarihub:destinations"
	versionKey = keyPrefix + ":version"
)

// DestinationCache caches catalogue pages in Redis. Invalidation bumps a
// version counter so stale pages are simply never read again and expire by TTL.
// A nil client turns every call into a miss.
type DestinationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// Connect opens a Redis client from a redis:// URL and pings it
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return client, nil
}

// NewDestinationCache creates a destination cache
func NewDestinationCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *DestinationCache {
	return &DestinationCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Enabled reports whether a Redis client is attached
func (c *DestinationCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached page for the filter, if any
func (c *DestinationCache) Get(ctx context.Context, filter models.DestinationFilter) (*models.DestinationPage, bool) {
	if !c.Enabled() {
		return nil, false
	}

	key, err := c.key(ctx, filter)
	if err != nil {
		c.warn(err, "read version")
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(err, "get")
		}
		return nil, false
	}

	var page models.DestinationPage
	if err := json.Unmarshal(data, &page); err != nil {
		c.warn(err, "decode")
		return nil, false
	}
	return &page, true
}

// Set stores a page for the filter
func (c *DestinationCache) Set(ctx context.Context, filter models.DestinationFilter, page *models.DestinationPage) {
	if !c.Enabled() || page == nil {
		return
	}

	key, err := c.key(ctx, filter)
	if err != nil {
		c.warn(err, "read version")
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		c.warn(err, "encode")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warn(err, "set")
	}
}

// Invalidate drops every cached page
func (c *DestinationCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		c.warn(err, "invalidate")
	}
}

func (c *DestinationCache) key(ctx context.Context, filter models.DestinationFilter) (string, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return pageKey(version, filter), nil
}

func pageKey(version int64, filter models.DestinationFilter) string {
	return fmt.Sprintf("%s:v%d:%s", keyPrefix, version, filter.CacheKey())
}

func (c *DestinationCache) warn(err error, op string) {
	if c.logger == nil {
		return
	}
	c.logger.WithError(err).WithField("op", op).Warn("Destination cache unavailable, bypassing")
}
