package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the last odds fetched per sport
type Cache interface {
	Get(ctx context.Context, sport string) ([]Event, bool, error)
	Set(ctx context.Context, sport string, events []Event, ttl time.Duration) error
}

// RedisCache keeps odds as JSON in Redis
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a cache on an existing client
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func keySport(sport string) string { return "odds:sport:" + sport }

func (c *RedisCache) Get(ctx context.Context, sport string) ([]Event, bool, error) {
	b, err := c.rdb.Get(ctx, keySport(sport)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached odds: %w", err)
	}

	var events []Event
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached odds: %w", err)
	}
	return events, true, nil
}

func (c *RedisCache) Set(ctx context.Context, sport string, events []Event, ttl time.Duration) error {
	b, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode odds: %w", err)
	}
	if err := c.rdb.Set(ctx, keySport(sport), b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache odds: %w", err)
	}
	return nil
}
