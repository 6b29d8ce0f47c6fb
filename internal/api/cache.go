package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// ResultCache caches full search results keyed by the vehicle multiset.
// Invalidate is called whenever listings change.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]model.LocationResult, bool)
	Set(ctx context.Context, key string, results []model.LocationResult)
	Invalidate(ctx context.Context)
}

// CacheKey digests the vehicle-length multiset; order of the input does not
// matter.
func CacheKey(vehicles []int) string {
	sorted := make([]int, len(vehicles))
	copy(sorted, vehicles)
	sort.Ints(sorted)
	var b strings.Builder
	for _, v := range sorted {
		fmt.Fprintf(&b, "%d,", v)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// cacheTTL reads SEARCH_CACHE_TTL (seconds); default 5 minutes.
func cacheTTL() time.Duration {
	if v := os.Getenv("SEARCH_CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 5 * time.Minute
}

type memEntry struct {
	results []model.LocationResult
	expires time.Time
}

// MemoryCache is the default in-process ResultCache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
}

// NewMemoryCache builds a MemoryCache; ttl <= 0 falls back to SEARCH_CACHE_TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = cacheTTL()
	}
	return &MemoryCache{ttl: ttl, entries: map[string]memEntry{}}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]model.LocationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.results, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, results []model.LocationResult) {
	c.mu.Lock()
	c.entries[key] = memEntry{results: results, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.entries = map[string]memEntry{}
	c.mu.Unlock()
}
