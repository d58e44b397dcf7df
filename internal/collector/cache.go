package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
)

// ErrCacheMiss is returned by a Cache for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache with go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// CachedBarFetcher is a read-through cache in front of a BarFetcher. Cache
// failures are logged and fall through to the upstream fetcher.
type CachedBarFetcher struct {
	upstream BarFetcher
	cache    Cache
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewCachedBarFetcher wraps upstream with cache.
func NewCachedBarFetcher(upstream BarFetcher, cache Cache, ttl time.Duration, log *zap.Logger) *CachedBarFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedBarFetcher{upstream: upstream, cache: cache, ttl: ttl, log: log, now: time.Now}
}

func (c *CachedBarFetcher) Name() string { return c.upstream.Name() + "+cache" }

func (c *CachedBarFetcher) key(symbol string, days int) string {
	return fmt.Sprintf("bars:%s:%s:%d:%s", c.upstream.Name(), strings.ToUpper(symbol), days, c.now().UTC().Format("2006-01-02"))
}

func (c *CachedBarFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	key := c.key(symbol, days)
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var bars []model.PriceBar
		if err := json.Unmarshal(raw, &bars); err == nil {
			return bars, nil
		}
		c.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	bars, err := c.upstream.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(bars); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return bars, nil
}
