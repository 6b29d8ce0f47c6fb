package pack

import (
	"reflect"
	"testing"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

func TestSlotsByWidth(t *testing.T) {
	l := model.Listing{ID: "A", Length: 40, Width: 25}
	slots := Slots(l, ByWidth)
	if len(slots) != 2 {
		t.Fatalf("want 2 slots (25/10), got %d", len(slots))
	}
	for _, s := range slots {
		if s.Capacity != 40 || s.ListingID != "A" {
			t.Fatalf("bad slot: %+v", s)
		}
	}
}

func TestSlotsByLength(t *testing.T) {
	l := model.Listing{ID: "A", Length: 40, Width: 25}
	slots := Slots(l, ByLength)
	if len(slots) != 4 {
		t.Fatalf("want 4 slots (40/10), got %d", len(slots))
	}
	for _, s := range slots {
		if s.Capacity != 25 {
			t.Fatalf("bad capacity: %+v", s)
		}
	}
}

func TestSlotsTooNarrow(t *testing.T) {
	l := model.Listing{ID: "A", Length: 40, Width: 9}
	if got := Slots(l, ByWidth); got != nil {
		t.Fatalf("width 9 should yield no lanes, got %v", got)
	}
}

func TestFitFirstFit(t *testing.T) {
	slots := []Slot{{"A", 20}, {"B", 30}}
	used, ok := Fit([]int{15, 15}, slots)
	if !ok {
		t.Fatal("expected fit")
	}
	// 15 goes into A (first fit), second 15 into B.
	if _, hasA := used["A"]; !hasA {
		t.Fatalf("A should be used: %v", used)
	}
	if _, hasB := used["B"]; !hasB {
		t.Fatalf("B should be used: %v", used)
	}
}

func TestFitDoesNotMutateSlots(t *testing.T) {
	slots := []Slot{{"A", 20}}
	if _, ok := Fit([]int{10}, slots); !ok {
		t.Fatal("expected fit")
	}
	if slots[0].Capacity != 20 {
		t.Fatalf("caller slots mutated: %+v", slots[0])
	}
}

func TestFitShortCircuitFailure(t *testing.T) {
	slots := []Slot{{"A", 20}}
	if _, ok := Fit([]int{25, 5}, slots); ok {
		t.Fatal("25 fits nowhere; attempt should fail")
	}
}

func TestFitEmptyVehicles(t *testing.T) {
	used, ok := Fit(nil, []Slot{{"A", 20}})
	if !ok || len(used) != 0 {
		t.Fatalf("empty demand should fit trivially with no listings used: %v %v", used, ok)
	}
}

func TestFitOrderSensitive(t *testing.T) {
	// Same demand, different presentation order, different verdicts.
	slots := []Slot{{"A", 30}, {"B", 20}}
	if _, ok := Fit([]int{15, 15, 20}, slots); !ok {
		t.Fatal("ascending should fit: 15->A, 15->A, 20->B")
	}
	if _, ok := Fit([]int{20, 15, 15}, slots); ok {
		t.Fatal("descending should fail: 20->A(10 left), 15->B(5 left), 15 fits nowhere")
	}
}

func TestFeasibleCombosSoundness(t *testing.T) {
	listings := []model.Listing{
		{ID: "A", LocationID: "L", Length: 15, Width: 10, PriceInCents: 2000},
		{ID: "B", LocationID: "L", Length: 15, Width: 10, PriceInCents: 2000},
		{ID: "C", LocationID: "L", Length: 30, Width: 10, PriceInCents: 5000},
	}
	combos := FeasibleCombos(listings, []int{15, 15}, 0)
	if len(combos) == 0 {
		t.Fatal("expected feasible combinations")
	}
	for _, c := range combos {
		// Rebuild the subset and verify it really packs under some orientation.
		var subset []model.Listing
		for _, l := range listings {
			for _, id := range c.ListingIDs {
				if l.ID == id {
					subset = append(subset, l)
				}
			}
		}
		fits := false
		for _, o := range []Orientation{ByWidth, ByLength} {
			var slots []Slot
			for _, l := range subset {
				slots = append(slots, Slots(l, o)...)
			}
			if _, ok := Fit([]int{15, 15}, slots); ok {
				fits = true
			}
		}
		if !fits {
			t.Fatalf("unsound combo: %+v", c)
		}
	}
}

func TestFeasibleCombosMaxSubsetGuard(t *testing.T) {
	listings := []model.Listing{
		{ID: "A", Length: 15, Width: 10, PriceInCents: 1},
		{ID: "B", Length: 15, Width: 10, PriceInCents: 1},
	}
	// Two vehicles need both listings, but the guard stops at singletons.
	if combos := FeasibleCombos(listings, []int{15, 15}, 1); len(combos) != 0 {
		t.Fatalf("guard should prune the pair subset, got %+v", combos)
	}
}

func TestFeasibleCombosEnumerationBound(t *testing.T) {
	// 21 listings: 20 cheap ones that fit nothing useful plus one expensive
	// listing that alone fits the vehicle. Truncation keeps the cheapest 20,
	// so the oversized location yields no combination.
	var listings []model.Listing
	for i := 0; i < 20; i++ {
		listings = append(listings, model.Listing{ID: "cheap-" + string(rune('a'+i)), Length: 10, Width: 10, PriceInCents: 1})
	}
	listings = append(listings, model.Listing{ID: "big", Length: 40, Width: 20, PriceInCents: 9999})

	if combos := FeasibleCombos(listings, []int{40}, 1); len(combos) != 0 {
		t.Fatalf("listing beyond the enumeration bound must be ignored, got %+v", combos)
	}
	// The cheapest listings survive truncation.
	combos := FeasibleCombos(listings, []int{10}, 1)
	if len(combos) == 0 || combos[0].TotalPriceInCents != 1 {
		t.Fatalf("cheapest listings should survive truncation: %+v", combos)
	}
}

func TestCheapestTieBreakLexicographic(t *testing.T) {
	combos := []Combo{
		{ListingIDs: []string{"B"}, TotalPriceInCents: 100},
		{ListingIDs: []string{"A"}, TotalPriceInCents: 100},
	}
	best, ok := Cheapest(combos)
	if !ok || best.ListingIDs[0] != "A" {
		t.Fatalf("tie should break to lexicographically smaller set, got %+v", best)
	}
}

func TestCheapestIsMinimum(t *testing.T) {
	combos := []Combo{
		{ListingIDs: []string{"A", "B"}, TotalPriceInCents: 4000},
		{ListingIDs: []string{"C"}, TotalPriceInCents: 5000},
	}
	best, _ := Cheapest(combos)
	for _, c := range combos {
		if best.TotalPriceInCents > c.TotalPriceInCents {
			t.Fatalf("selected %d > candidate %d", best.TotalPriceInCents, c.TotalPriceInCents)
		}
	}
}

func engineFor(t *testing.T) *Engine {
	t.Helper()
	return &Engine{Workers: 2}
}

func TestSearchSingleListing(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc1": {{ID: "A", LocationID: "loc1", Length: 40, Width: 20, PriceInCents: 1000}},
	}
	got := engineFor(t).FindFeasibleLocations(locations, []int{10, 20})
	want := []model.LocationResult{{LocationID: "loc1", ListingIDs: []string{"A"}, TotalPriceInCents: 1000}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSearchPicksCheaperSingle(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc1": {
			{ID: "A", LocationID: "loc1", Length: 20, Width: 20, PriceInCents: 100},
			{ID: "B", LocationID: "loc1", Length: 20, Width: 20, PriceInCents: 200},
		},
	}
	got := engineFor(t).FindFeasibleLocations(locations, []int{10, 10})
	if len(got) != 1 {
		t.Fatalf("want 1 result, got %+v", got)
	}
	if !reflect.DeepEqual(got[0].ListingIDs, []string{"A"}) || got[0].TotalPriceInCents != 100 {
		t.Fatalf("cheaper single listing should win: %+v", got[0])
	}
}

func TestSearchPairBeatsExpensiveSingle(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc1": {
			{ID: "A", LocationID: "loc1", Length: 15, Width: 10, PriceInCents: 2000},
			{ID: "B", LocationID: "loc1", Length: 15, Width: 10, PriceInCents: 2000},
			{ID: "C", LocationID: "loc1", Length: 30, Width: 10, PriceInCents: 5000},
		},
	}
	got := engineFor(t).FindFeasibleLocations(locations, []int{15, 15})
	if len(got) != 1 {
		t.Fatalf("want 1 result, got %+v", got)
	}
	if !reflect.DeepEqual(got[0].ListingIDs, []string{"A", "B"}) || got[0].TotalPriceInCents != 4000 {
		t.Fatalf("pair at 4000 should beat C at 5000: %+v", got[0])
	}
}

func TestSearchNothingFits(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc1": {{ID: "A", LocationID: "loc1", Length: 40, Width: 20, PriceInCents: 1000}},
	}
	if got := engineFor(t).FindFeasibleLocations(locations, []int{50}); len(got) != 0 {
		t.Fatalf("vehicle 50 exceeds every slot; want [], got %+v", got)
	}
}

func TestSearchEmptyDemand(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc1": {{ID: "A", LocationID: "loc1", Length: 40, Width: 20, PriceInCents: 1000}},
	}
	if got := engineFor(t).FindFeasibleLocations(locations, nil); len(got) != 0 {
		t.Fatalf("empty demand should yield no results, got %+v", got)
	}
}

func TestSearchResultsSortedByLocation(t *testing.T) {
	locations := map[string][]model.Listing{
		"loc2": {{ID: "B", LocationID: "loc2", Length: 20, Width: 10, PriceInCents: 50}},
		"loc1": {{ID: "A", LocationID: "loc1", Length: 20, Width: 10, PriceInCents: 75}},
	}
	got := engineFor(t).FindFeasibleLocations(locations, []int{10})
	if len(got) != 2 || got[0].LocationID != "loc1" || got[1].LocationID != "loc2" {
		t.Fatalf("results should be sorted by location id: %+v", got)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([]model.VehicleQuery{{Length: 10, Quantity: 2}, {Length: 20, Quantity: 1}, {Length: 30, Quantity: 0}})
	if !reflect.DeepEqual(got, []int{10, 10, 20}) {
		t.Fatalf("got %v", got)
	}
}
