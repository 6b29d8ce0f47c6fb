package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	listings map[string]model.Listing // id -> listing
	byLoc    map[string][]string      // locationId -> listing ids
	locIDs   []string                 // insertion order of locations
	searches []model.SearchRecord
	subs     []model.Subscription
	// Webhook queue state
	deliveries  map[string]*memDelivery
	deliveryIDs []string
}

func NewMemory() *Memory {
	return &Memory{
		listings:   map[string]model.Listing{},
		byLoc:      map[string][]string{},
		deliveries: map[string]*memDelivery{},
	}
}

// NewMemoryFromFile seeds a Memory store with listings loaded from the given
// JSON file. The path comes from configuration; there is no default.
func NewMemoryFromFile(path string) (*Memory, error) {
	listings, err := LoadListingsFile(path)
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	_, _, _, err = m.ImportListings(context.Background(), listings)
	return m, err
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

// ImportListings inserts listings. Records missing an ID get one assigned;
// duplicate IDs and records with non-positive dimensions or negative prices
// are skipped.
func (m *Memory) ImportListings(ctx context.Context, listings []model.Listing) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, skipped := 0, 0
	for _, l := range listings {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if _, exists := m.listings[l.ID]; exists || l.LocationID == "" || l.Length <= 0 || l.Width <= 0 || l.PriceInCents < 0 {
			skipped++
			continue
		}
		if _, seen := m.byLoc[l.LocationID]; !seen {
			m.locIDs = append(m.locIDs, l.LocationID)
		}
		m.listings[l.ID] = l
		m.byLoc[l.LocationID] = append(m.byLoc[l.LocationID], l.ID)
		created++
	}
	return "imp_" + uuid.New().String(), created, skipped, nil
}

func (m *Memory) ListListings(ctx context.Context, locationID, cursor string, limit int) ([]model.Listing, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	if locationID != "" {
		ids = m.byLoc[locationID]
	} else {
		for _, loc := range m.locIDs {
			ids = append(ids, m.byLoc[loc]...)
		}
	}
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Listing{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.listings[ids[i]])
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) ListingsByLocation(ctx context.Context) (map[string][]model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]model.Listing, len(m.byLoc))
	for loc, ids := range m.byLoc {
		ls := make([]model.Listing, 0, len(ids))
		for _, id := range ids {
			ls = append(ls, m.listings[id])
		}
		out[loc] = ls
	}
	return out, nil
}

func (m *Memory) ListLocations(ctx context.Context) ([]model.LocationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LocationSummary, 0, len(m.byLoc))
	for loc, ids := range m.byLoc {
		out = append(out, model.LocationSummary{LocationID: loc, Listings: len(ids)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].LocationID < out[b].LocationID })
	return out, nil
}

func (m *Memory) RecordSearch(ctx context.Context, rec model.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, rec)
	return nil
}

func (m *Memory) ListSearches(ctx context.Context, cursor string, limit int) ([]model.SearchRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	// newest first
	start := len(m.searches) - 1
	if cursor != "" {
		for i := len(m.searches) - 1; i >= 0; i-- {
			if m.searches[i].ID == cursor {
				start = i - 1
				break
			}
		}
	}
	out := []model.SearchRecord{}
	var next string
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.searches[i])
		next = m.searches[i].ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs = append(m.subs, s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		for _, e := range s.Events {
			if e == eventType {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		for i := range m.subs {
			if m.subs[i].ID == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	end := start + limit
	if end > len(m.subs) {
		end = len(m.subs)
	}
	items := append([]model.Subscription(nil), m.subs[start:end]...)
	next := ""
	if end < len(m.subs) {
		next = m.subs[end-1].ID
	}
	return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		if s.ID != id {
			out = append(out, s)
		}
	}
	if len(out) == len(m.subs) {
		return ErrNotFound
	}
	m.subs = out
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending"}, NextAttemptAt: time.Now()}
	m.deliveries[id] = d
	m.deliveryIDs = append(m.deliveryIDs, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.deliveryIDs {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return nil
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else {
		d.Status = "retry"
		d.LastError = lastError
		if nextAttemptAt != nil {
			d.NextAttemptAt = *nextAttemptAt
		} else {
			d.NextAttemptAt = time.Now().Add(1 * time.Minute)
		}
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d != nil {
		d.Status = "failed"
		d.LastError = lastError
		d.ResponseCode = responseCode
		d.LatencyMs = latencyMs
	}
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, id := range m.deliveryIDs {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []map[string]any{}
	var next string
	for _, id := range m.deliveryIDs[start:] {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		if len(out) >= limit {
			break
		}
		item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
		if !d.NextAttemptAt.IsZero() {
			item["nextAttemptAt"] = d.NextAttemptAt
		}
		if d.LastError != "" {
			item["lastError"] = d.LastError
		}
		out = append(out, item)
		next = d.ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Status = "pending"
	d.NextAttemptAt = time.Now()
	return nil
}
