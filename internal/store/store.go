package store

import (
	"context"
	"errors"
	"time"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Listings
	ImportListings(ctx context.Context, listings []model.Listing) (importID string, created, skipped int, err error)
	ListListings(ctx context.Context, locationID, cursor string, limit int) (items []model.Listing, nextCursor string, err error)
	ListingsByLocation(ctx context.Context) (map[string][]model.Listing, error)
	ListLocations(ctx context.Context) ([]model.LocationSummary, error)

	// Search audit log
	RecordSearch(ctx context.Context, rec model.SearchRecord) error
	ListSearches(ctx context.Context, cursor string, limit int) ([]model.SearchRecord, string, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error)
	RetryWebhookDelivery(ctx context.Context, id string) error
}

// WebhookDelivery is one pending or attempted webhook dispatch.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Status         string
	Attempts       int
}

var ErrNotFound = errors.New("not found")
