package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkforge/linkforge/internal/metrics"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/redis/go-redis/v9"
)

// LinkCache is a cache-aside layer for the resolve hot path. A miss is not
// an error; callers fall through to the database.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{
		client: client,
		ttl:    ttl,
	}
}

func linkKey(slug string) string {
	return fmt.Sprintf("link:%s", slug)
}

func (c *LinkCache) Get(ctx context.Context, slug string) (*models.Link, error) {
	const op = "database.redis.LinkCache.Get"

	data, err := c.client.Get(ctx, linkKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get cached link: %w", op, err)
	}

	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal cached link: %w", op, err)
	}

	metrics.RecordCacheHit()

	return &link, nil
}

// Set caches the link unless it carries a click limit. A cached click count
// goes stale as soon as the link resolves, which would let the limit gate
// pass on a spent link.
func (c *LinkCache) Set(ctx context.Context, link *models.Link) error {
	const op = "database.redis.LinkCache.Set"

	if link.MaxClicks != nil {
		return nil
	}

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal link: %w", op, err)
	}

	if err := c.client.Set(ctx, linkKey(link.Slug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to cache link: %w", op, err)
	}

	return nil
}

func (c *LinkCache) Delete(ctx context.Context, slug string) error {
	const op = "database.redis.LinkCache.Delete"

	if err := c.client.Del(ctx, linkKey(slug)).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete cached link: %w", op, err)
	}

	return nil
}

// New connects a redis client and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "database.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}
