package api

import (
	"context"
	"testing"
	"time"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

func TestCacheKeyOrderIndependent(t *testing.T) {
	a := CacheKey([]int{10, 20, 15})
	b := CacheKey([]int{20, 15, 10})
	if a != b {
		t.Fatalf("keys should match for the same multiset: %s vs %s", a, b)
	}
	c := CacheKey([]int{10, 20})
	if a == c {
		t.Fatalf("different multisets should not collide")
	}
}

func TestCacheKeyMultisetSensitive(t *testing.T) {
	// [1, 12] and [11, 2] must not collide on digit concatenation.
	if CacheKey([]int{1, 12}) == CacheKey([]int{11, 2}) {
		t.Fatalf("keys collide across distinct multisets")
	}
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	results := []model.LocationResult{{LocationID: "loc-1", ListingIDs: []string{"A"}, TotalPriceInCents: 1000}}
	c.Set(ctx, "k1", results)
	got, ok := c.Get(ctx, "k1")
	if !ok || len(got) != 1 || got[0].LocationID != "loc-1" {
		t.Fatalf("got %v ok=%v", got, ok)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatalf("missing key should not hit")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()
	c.Set(ctx, "k1", []model.LocationResult{})
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "k1"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	c.Set(ctx, "k1", []model.LocationResult{})
	c.Invalidate(ctx)
	if _, ok := c.Get(ctx, "k1"); ok {
		t.Fatalf("invalidate should drop entries")
	}
}
