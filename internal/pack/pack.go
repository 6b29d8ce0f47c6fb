// Package pack implements the storage search core: slicing listings into
// parking slots, greedy first-fit packing, subset search, and per-location
// selection of the cheapest feasible combination.
package pack

import (
	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// Orientation selects which axis of a listing is sliced into lanes.
type Orientation int

const (
	// ByWidth slices the width into lanes; each lane is as long as the listing.
	ByWidth Orientation = iota
	// ByLength slices the length into lanes; each lane is as wide as the listing.
	ByLength
)

// laneWidth is the fixed width of one parking lane.
const laneWidth = 10

// Slot is one lane of parkable linear capacity derived from a listing.
type Slot struct {
	ListingID string
	Capacity  int
}

// Slots returns the lanes a listing yields under the given orientation:
// width/10 lanes of capacity length, or length/10 lanes of capacity width.
// A listing narrower than one lane in the active axis yields no slots.
func Slots(l model.Listing, o Orientation) []Slot {
	var n, capacity int
	switch o {
	case ByWidth:
		n, capacity = l.Width/laneWidth, l.Length
	case ByLength:
		n, capacity = l.Length/laneWidth, l.Width
	}
	if n <= 0 {
		return nil
	}
	out := make([]Slot, n)
	for i := range out {
		out[i] = Slot{ListingID: l.ID, Capacity: capacity}
	}
	return out
}

// Fit places each vehicle into the first slot with sufficient remaining
// capacity, scanning slots in the given order. It returns the set of listing
// IDs whose slots were used and whether every vehicle was placed. The first
// vehicle that fits nowhere fails the whole attempt.
//
// The verdict is order-sensitive for both vehicles and slots; callers choose
// the presentation order. The input slice is never mutated.
func Fit(vehicles []int, slots []Slot) (map[string]struct{}, bool) {
	used := map[string]struct{}{}
	if len(vehicles) == 0 {
		return used, true
	}
	remaining := make([]Slot, len(slots))
	copy(remaining, slots)
	for _, vl := range vehicles {
		placed := false
		for i := range remaining {
			if vl <= remaining[i].Capacity {
				remaining[i].Capacity -= vl
				used[remaining[i].ListingID] = struct{}{}
				placed = true
				break
			}
		}
		if !placed {
			return nil, false
		}
	}
	return used, true
}
