package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// LoadListingsFile reads a JSON array of listings from disk. Records missing
// required fields are rejected as a whole-file validation failure rather than
// silently dropped.
func LoadListingsFile(path string) ([]model.Listing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings file: %w", err)
	}
	var listings []model.Listing
	if err := json.Unmarshal(b, &listings); err != nil {
		return nil, fmt.Errorf("parse listings file %s: %w", path, err)
	}
	for i, l := range listings {
		if l.ID == "" || l.LocationID == "" {
			return nil, fmt.Errorf("listing %d: missing id or location_id", i)
		}
		if l.Length <= 0 || l.Width <= 0 {
			return nil, fmt.Errorf("listing %s: dimensions must be positive", l.ID)
		}
		if l.PriceInCents < 0 {
			return nil, fmt.Errorf("listing %s: price must be non-negative", l.ID)
		}
	}
	return listings, nil
}
