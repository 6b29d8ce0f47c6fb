package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/metrics"
	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
	"github.com/OrangePeelr/MultiVehicleSearch/internal/pack"
)

// SearchesHandler handles POST/GET /v1/searches
func (s *Server) SearchesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		// Request body is a bare JSON array of {length, quantity}; the
		// response body is a bare array of result entries. The search id and
		// cache disposition travel in headers so the bodies stay plain.
		var queries []model.VehicleQuery
		if err := json.NewDecoder(r.Body).Decode(&queries); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateVehicleQueries(queries); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid search request", err.Error(), r.URL.Path)
			return
		}
		results, cacheHit, durMs, err := s.runSearch(r.Context(), queries)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Search failed", err.Error(), r.URL.Path)
			return
		}
		rec := model.SearchRecord{
			ID:         uuid.NewString(),
			Vehicles:   queries,
			Results:    len(results),
			DurationMs: durMs,
			CacheHit:   cacheHit,
			TS:         time.Now().UTC().Format(time.RFC3339),
		}
		_ = s.Store.RecordSearch(r.Context(), rec)
		s.Pub.Emit(r.Context(), "search.completed", map[string]any{
			"searchId": rec.ID,
			"vehicles": queries,
			"results":  len(results),
		})
		w.Header().Set("X-Search-Id", rec.ID)
		if cacheHit {
			w.Header().Set("X-Cache", "hit")
		} else {
			w.Header().Set("X-Cache", "miss")
		}
		writeJSON(w, http.StatusOK, results)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSearches(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List searches failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// runSearch executes the search pipeline: cache lookup, engine run, cache fill.
func (s *Server) runSearch(ctx context.Context, queries []model.VehicleQuery) ([]model.LocationResult, bool, int, error) {
	vehicles := pack.Flatten(queries)
	if len(vehicles) == 0 {
		metrics.Searches.WithLabelValues("empty").Inc()
		return []model.LocationResult{}, false, 0, nil
	}
	key := CacheKey(vehicles)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		metrics.Searches.WithLabelValues("hit").Inc()
		metrics.FeasibleLocations.Observe(float64(len(cached)))
		return cached, true, 0, nil
	}
	byLoc, err := s.Store.ListingsByLocation(ctx)
	if err != nil {
		metrics.Searches.WithLabelValues("error").Inc()
		return nil, false, 0, err
	}
	start := time.Now()
	results := s.Engine.FindFeasibleLocations(byLoc, vehicles)
	elapsed := time.Since(start)
	metrics.Searches.WithLabelValues("miss").Inc()
	metrics.SearchDuration.Observe(elapsed.Seconds())
	metrics.FeasibleLocations.Observe(float64(len(results)))
	s.Cache.Set(ctx, key, results)
	return results, false, int(elapsed.Milliseconds()), nil
}

// ListingsHandler handles GET/POST /v1/listings
func (s *Server) ListingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Listings []model.Listing `json:"listings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		imp, created, skipped, err := s.Store.ImportListings(r.Context(), req.Listings)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Import listings failed", err.Error(), r.URL.Path)
			return
		}
		s.Cache.Invalidate(r.Context())
		s.Pub.Emit(r.Context(), "listings.imported", map[string]any{
			"importId": imp,
			"created":  created,
			"skipped":  skipped,
		})
		writeJSON(w, http.StatusAccepted, map[string]any{"importId": imp, "created": created, "skipped": skipped})
	case http.MethodGet:
		locationID := r.URL.Query().Get("location")
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListListings(r.Context(), locationID, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List listings failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// LocationsHandler handles GET /v1/locations
func (s *Server) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := s.Store.ListLocations(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List locations failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		sub.Secret = ""
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		for i := range items {
			items[i].Secret = ""
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Subscription not found", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := r.URL.Query().Get("status")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListWebhookDeliveries(r.Context(), status, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "retry" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.RetryWebhookDelivery(r.Context(), parts[0]); err != nil {
		writeProblem(w, http.StatusNotFound, "Delivery not found", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HealthHandler responds 200 while the process is up.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler reports readiness; with a database-backed store it pings it.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
