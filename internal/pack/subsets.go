package pack

import (
	"math/bits"
	"sort"
	"strings"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// Combo is a feasible combination: a set of listing IDs (sorted) and the sum
// of their prices.
type Combo struct {
	ListingIDs        []string
	TotalPriceInCents int
}

func (c Combo) key() string { return strings.Join(c.ListingIDs, ",") }

// maxEnumListings bounds the subset enumeration per location. It keeps the
// bitmask well inside an int and caps the O(2^n) loop; locations with more
// listings are truncated to their cheapest maxEnumListings before
// enumeration.
const maxEnumListings = 20

// FeasibleCombos enumerates every non-empty subset of the location's listings
// under both orientations and returns the deduplicated combinations whose
// combined slots pack all vehicles.
//
// Vehicles are tried longest-first against slots sorted by descending
// capacity. The enumeration is O(2^n) in the listing count, bounded by
// maxEnumListings; maxSubset > 0 additionally caps the subset size
// (0 means no cap).
func FeasibleCombos(listings []model.Listing, vehicles []int, maxSubset int) []Combo {
	if len(listings) == 0 {
		return nil
	}
	if len(listings) > maxEnumListings {
		sorted := append([]model.Listing(nil), listings...)
		sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].PriceInCents < sorted[b].PriceInCents })
		listings = sorted[:maxEnumListings]
	}
	ordered := make([]int, len(vehicles))
	copy(ordered, vehicles)
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	seen := map[string]Combo{}
	for _, o := range []Orientation{ByWidth, ByLength} {
		// Slots per listing are fixed per orientation; build once.
		perListing := make([][]Slot, len(listings))
		for i, l := range listings {
			perListing[i] = Slots(l, o)
		}
		for mask := 1; mask < 1<<len(listings); mask++ {
			if maxSubset > 0 && bits.OnesCount(uint(mask)) > maxSubset {
				continue
			}
			var slots []Slot
			for i := range listings {
				if mask&(1<<i) != 0 {
					slots = append(slots, perListing[i]...)
				}
			}
			sort.SliceStable(slots, func(a, b int) bool { return slots[a].Capacity > slots[b].Capacity })
			if _, ok := Fit(ordered, slots); !ok {
				continue
			}
			ids := make([]string, 0, bits.OnesCount(uint(mask)))
			price := 0
			for i, l := range listings {
				if mask&(1<<i) != 0 {
					ids = append(ids, l.ID)
					price += l.PriceInCents
				}
			}
			sort.Strings(ids)
			c := Combo{ListingIDs: ids, TotalPriceInCents: price}
			seen[c.key()] = c
		}
	}

	out := make([]Combo, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].TotalPriceInCents != out[b].TotalPriceInCents {
			return out[a].TotalPriceInCents < out[b].TotalPriceInCents
		}
		return out[a].key() < out[b].key()
	})
	return out
}

// Cheapest returns the minimum-price combination. Ties break lexicographically
// on the listing-ID set so repeated searches stay deterministic.
func Cheapest(combos []Combo) (Combo, bool) {
	if len(combos) == 0 {
		return Combo{}, false
	}
	best := combos[0]
	for _, c := range combos[1:] {
		if c.TotalPriceInCents < best.TotalPriceInCents ||
			(c.TotalPriceInCents == best.TotalPriceInCents && c.key() < best.key()) {
			best = c
		}
	}
	return best, true
}
