package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Searches counts executed searches by outcome (hit = served from cache)
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "searches_total", Help: "Vehicle searches by outcome."},
		[]string{"outcome"},
	)
	// SearchDuration tracks engine run time in seconds
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "search_duration_seconds", Help: "Search engine duration in seconds.", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}},
	)
	// FeasibleLocations tracks result counts per search
	FeasibleLocations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "search_feasible_locations", Help: "Feasible locations returned per search.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100}},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Searches)
		Registry.MustRegister(SearchDuration)
		Registry.MustRegister(FeasibleLocations)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
