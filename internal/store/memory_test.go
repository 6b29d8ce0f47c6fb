package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

func sampleListings() []model.Listing {
	return []model.Listing{
		{ID: "2f9266ce", LocationID: "loc-a", Length: 40, Width: 20, PriceInCents: 64683},
		{ID: "741a0213", LocationID: "loc-b", Length: 20, Width: 20, PriceInCents: 16293},
		{ID: "2213d790", LocationID: "loc-a", Length: 50, Width: 25, PriceInCents: 75000},
	}
}

func TestImportListingsGroupsByLocation(t *testing.T) {
	m := NewMemory()
	_, created, skipped, err := m.ImportListings(context.Background(), sampleListings())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if created != 3 || skipped != 0 {
		t.Fatalf("created=%d skipped=%d", created, skipped)
	}
	byLoc, err := m.ListingsByLocation(context.Background())
	if err != nil {
		t.Fatalf("by location: %v", err)
	}
	if len(byLoc["loc-a"]) != 2 || len(byLoc["loc-b"]) != 1 {
		t.Fatalf("bad grouping: %+v", byLoc)
	}
}

func TestImportListingsSkipsDuplicatesAndInvalid(t *testing.T) {
	m := NewMemory()
	_, _, _, _ = m.ImportListings(context.Background(), sampleListings())
	batch := []model.Listing{
		{ID: "2f9266ce", LocationID: "loc-a", Length: 40, Width: 20, PriceInCents: 1}, // dup id
		{ID: "new-1", LocationID: "loc-a", Length: 0, Width: 20, PriceInCents: 1},     // bad length
		{ID: "new-2", LocationID: "loc-a", Length: 10, Width: 10, PriceInCents: 1},
	}
	_, created, skipped, err := m.ImportListings(context.Background(), batch)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if created != 1 || skipped != 2 {
		t.Fatalf("created=%d skipped=%d", created, skipped)
	}
}

func TestListListingsPagination(t *testing.T) {
	m := NewMemory()
	_, _, _, _ = m.ImportListings(context.Background(), sampleListings())
	page1, next, err := m.ListListings(context.Background(), "", "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || next == "" {
		t.Fatalf("page1=%d next=%q", len(page1), next)
	}
	page2, next2, err := m.ListListings(context.Background(), "", next, 2)
	if err != nil {
		t.Fatalf("list page2: %v", err)
	}
	if len(page2) != 1 || next2 != "" {
		t.Fatalf("page2=%d next2=%q", len(page2), next2)
	}
}

func TestListListingsByLocationFilter(t *testing.T) {
	m := NewMemory()
	_, _, _, _ = m.ImportListings(context.Background(), sampleListings())
	items, _, err := m.ListListings(context.Background(), "loc-a", "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 loc-a listings, got %d", len(items))
	}
}

func TestNewMemoryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	data := `[
		{"id":"A","location_id":"loc-1","length":40,"width":20,"price_in_cents":1000},
		{"id":"B","location_id":"loc-1","length":20,"width":20,"price_in_cents":500}
	]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := NewMemoryFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	byLoc, _ := m.ListingsByLocation(context.Background())
	if len(byLoc["loc-1"]) != 2 {
		t.Fatalf("want 2 listings, got %+v", byLoc)
	}
}

func TestLoadListingsFileRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	// width missing -> zero -> contract violation
	data := `[{"id":"A","location_id":"loc-1","length":40,"price_in_cents":1000}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadListingsFile(path); err == nil {
		t.Fatal("expected validation error for missing width")
	}
}

func TestDeleteSubscriptionUnknownID(t *testing.T) {
	m := NewMemory()
	if err := m.DeleteSubscription(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	sub, err := m.CreateSubscription(context.Background(), model.SubscriptionRequest{URL: "https://example.invalid", Events: []string{"search.completed"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.DeleteSubscription(context.Background(), sub.ID); err != nil {
		t.Fatalf("delete existing: %v", err)
	}
	if err := m.DeleteSubscription(context.Background(), sub.ID); err != ErrNotFound {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestListWebhookDeliveriesPagination(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 3; i++ {
		if _, err := m.EnqueueWebhook(context.Background(), "", "search.completed", "https://example.invalid", "", []byte(`{}`)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	page1, next, err := m.ListWebhookDeliveries(context.Background(), "", "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || next == "" {
		t.Fatalf("page1=%d next=%q", len(page1), next)
	}
	page2, next2, err := m.ListWebhookDeliveries(context.Background(), "", next, 2)
	if err != nil {
		t.Fatalf("list page2: %v", err)
	}
	if len(page2) != 1 || next2 != "" {
		t.Fatalf("page2=%d next2=%q", len(page2), next2)
	}
	if page1[0]["id"] == page2[0]["id"] {
		t.Fatalf("pages overlap: %v vs %v", page1[0]["id"], page2[0]["id"])
	}
}

func TestListSearchesNewestFirst(t *testing.T) {
	m := NewMemory()
	_ = m.RecordSearch(context.Background(), model.SearchRecord{ID: "s1"})
	_ = m.RecordSearch(context.Background(), model.SearchRecord{ID: "s2"})
	items, _, err := m.ListSearches(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "s2" {
		t.Fatalf("want newest first, got %+v", items)
	}
}
