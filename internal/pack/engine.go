package pack

import (
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// Engine runs the per-location search. Locations are independent, so they are
// evaluated on worker goroutines; every evaluation works on its own slot
// copies and no state is shared.
type Engine struct {
	MaxSubset int // cap on subset size per location; 0 = unlimited
	Workers   int // concurrent location evaluations; <= 1 runs serially
}

// NewEngine builds an Engine from SEARCH_MAX_SUBSET and SEARCH_WORKERS.
func NewEngine() *Engine {
	e := &Engine{Workers: 4}
	if v := os.Getenv("SEARCH_MAX_SUBSET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			e.MaxSubset = n
		}
	}
	if v := os.Getenv("SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			e.Workers = n
		}
	}
	return e
}

// Flatten expands demand items into the vehicle-length multiset.
func Flatten(queries []model.VehicleQuery) []int {
	var out []int
	for _, q := range queries {
		for i := 0; i < q.Quantity; i++ {
			out = append(out, q.Length)
		}
	}
	return out
}

// FindFeasibleLocations returns the cheapest feasible combination per
// location, sorted by location ID. Locations where nothing fits are omitted.
// An empty vehicle multiset yields an empty result.
func (e *Engine) FindFeasibleLocations(locations map[string][]model.Listing, vehicles []int) []model.LocationResult {
	out := []model.LocationResult{}
	e.Each(locations, vehicles, func(r model.LocationResult) {
		out = append(out, r)
	})
	sort.Slice(out, func(a, b int) bool { return out[a].LocationID < out[b].LocationID })
	return out
}

// Each invokes fn once per location with a feasible combination, in no
// particular order. fn is never called concurrently.
func (e *Engine) Each(locations map[string][]model.Listing, vehicles []int, fn func(model.LocationResult)) {
	if len(vehicles) == 0 || len(locations) == 0 {
		return
	}
	workers := e.Workers
	if workers <= 1 {
		for id, listings := range locations {
			if r, ok := e.searchLocation(id, listings, vehicles); ok {
				fn(r)
			}
		}
		return
	}

	type job struct {
		id       string
		listings []model.Listing
	}
	jobs := make(chan job)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if r, ok := e.searchLocation(j.id, j.listings, vehicles); ok {
					mu.Lock()
					fn(r)
					mu.Unlock()
				}
			}
		}()
	}
	for id, listings := range locations {
		jobs <- job{id: id, listings: listings}
	}
	close(jobs)
	wg.Wait()
}

func (e *Engine) searchLocation(id string, listings []model.Listing, vehicles []int) (model.LocationResult, bool) {
	combos := FeasibleCombos(listings, vehicles, e.MaxSubset)
	best, ok := Cheapest(combos)
	if !ok {
		return model.LocationResult{}, false
	}
	return model.LocationResult{LocationID: id, ListingIDs: best.ListingIDs, TotalPriceInCents: best.TotalPriceInCents}, true
}
