package api

import (
	"context"
	"encoding/json"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// RedisCache implements ResultCache over Redis so cached searches survive
// restarts and are shared across replicas.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

const redisGenKey = "search:gen"

func NewRedisCache() (*RedisCache, error) {
	opt, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		return nil, err
	}
	return &RedisCache{rdb: redis.NewClient(opt), ttl: cacheTTL()}, nil
}

// generation namespaces keys; Invalidate bumps it and stale entries age out
// via their TTL instead of being scanned and deleted.
func (c *RedisCache) generation(ctx context.Context) string {
	gen, err := c.rdb.Get(ctx, redisGenKey).Result()
	if err != nil {
		return "0"
	}
	return gen
}

func (c *RedisCache) fullKey(ctx context.Context, key string) string {
	return "search:" + c.generation(ctx) + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]model.LocationResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	data, err := c.rdb.Get(ctx, c.fullKey(ctx, key)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []model.LocationResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, key string, results []model.LocationResult) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(results)
	_ = c.rdb.Set(ctx, c.fullKey(ctx, key), data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = c.rdb.Incr(ctx, redisGenKey).Err()
}
