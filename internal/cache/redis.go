package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through Redis cache. Concurrent misses on one key are collapsed into a
// single load.
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

// New creates a cache for the given Redis server.
func New(addr, password string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

// Ping checks that Redis answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.RDB.Ping(ctx).Err()
}

// Close releases the client connections.
func (c *Cache) Close() error {
	return c.RDB.Close()
}

// GetOrLoad returns the cached value for key, calling load and storing its result on a miss.
// Errors from load are returned as is and never cached. A Redis failure falls back to load.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		// shared by every waiter, so one caller going away must not cancel the load
		loadCtx := context.WithoutCancel(ctx)
		b, e := load(loadCtx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(loadCtx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
