package question

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache provides Redis-backed question pool caching to offload upstream API calls.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PoolCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(k PoolKey) string {
	category := k.Category
	if category == "" {
		category = "any"
	}
	difficulty := k.Difficulty
	if difficulty == "" {
		difficulty = "any"
	}
	return strings.Join([]string{"superover", "questions", strings.ToLower(category), difficulty}, ":")
}

// Get returns the cached pool, or nil on a miss.
func (c *Cache) Get(ctx context.Context, k PoolKey) (*Pool, error) {
	data, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var pool Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (c *Cache) Set(ctx context.Context, k PoolKey, pool Pool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(k), data, c.ttl).Err()
}
