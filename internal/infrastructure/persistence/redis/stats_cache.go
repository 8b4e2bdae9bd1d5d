package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
)

// TTLStats bounds cache growth; a finished test's statistics never
// change, so the value is only about memory, not freshness.
const TTLStats = 24 * time.Hour

// StatsCache implements query.StatsCache on Redis.
type StatsCache struct {
	client *Client
	ttl    time.Duration
}

// NewStatsCache creates a StatsCache. A zero ttl means TTLStats.
func NewStatsCache(client *Client, ttl time.Duration) *StatsCache {
	if ttl == 0 {
		ttl = TTLStats
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns cached statistics, or (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context, code quiz.Code) (*quiz.Statistics, error) {
	data, err := c.client.rdb.Get(ctx, prefixStats+string(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get stats: %w", err)
	}

	var stats quiz.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return &stats, nil
}

// Put stores statistics for the code.
func (c *StatsCache) Put(ctx context.Context, code quiz.Code, stats *quiz.Statistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return c.client.rdb.Set(ctx, prefixStats+string(code), data, c.ttl).Err()
}
