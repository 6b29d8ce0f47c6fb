package model

// Core domain types shared across the service.

// Listing is a rentable rectangular storage unit at a physical location.
// JSON field names match the listings.json import format.
type Listing struct {
	ID           string `json:"id"`
	LocationID   string `json:"location_id"`
	Length       int    `json:"length"`
	Width        int    `json:"width"`
	PriceInCents int    `json:"price_in_cents"`
}

// VehicleQuery is one demand item: quantity vehicles of the given length.
type VehicleQuery struct {
	Length   int `json:"length"`
	Quantity int `json:"quantity"`
}

// LocationResult is the cheapest feasible combination found for one location.
type LocationResult struct {
	LocationID        string   `json:"location_id"`
	ListingIDs        []string `json:"listing_ids"`
	TotalPriceInCents int      `json:"total_price_in_cents"`
}

// LocationSummary describes a location for the locations index endpoint.
type LocationSummary struct {
	LocationID string `json:"location_id"`
	Listings   int    `json:"listings"`
}

// SearchRecord is the audit row kept per executed search.
type SearchRecord struct {
	ID         string         `json:"id"`
	Vehicles   []VehicleQuery `json:"vehicles"`
	Results    int            `json:"results"`
	DurationMs int            `json:"durationMs"`
	CacheHit   bool           `json:"cacheHit"`
	TS         string         `json:"ts"`
}

// SubscriptionRequest registers a webhook endpoint for event types.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
