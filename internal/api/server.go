// Package api implements HTTP handlers and helpers for the storage search service.
package api

import (
	"context"
	"os"
	"strings"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/pack"
	"github.com/OrangePeelr/MultiVehicleSearch/internal/store"
	"github.com/OrangePeelr/MultiVehicleSearch/internal/webhooks"
)

type Server struct {
	Store  store.Store
	Pub    *webhooks.Publisher
	Cache  ResultCache
	Engine *pack.Engine
}

// NewServer creates a Server. If DATABASE_URL is unset, uses an in-memory
// store, seeded from LISTINGS_PATH when that is set.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		if path := strings.TrimSpace(os.Getenv("LISTINGS_PATH")); path != "" {
			m, err := store.NewMemoryFromFile(path)
			if err != nil {
				return nil, err
			}
			s = m
		} else {
			s = store.NewMemory()
		}
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.Migrate(context.Background())
		}
		s = sp
	}
	// Cache selection
	var cache ResultCache
	if os.Getenv("REDIS_URL") != "" {
		if rc, err := NewRedisCache(); err == nil {
			cache = rc
		} else {
			cache = NewMemoryCache(0)
		}
	} else {
		cache = NewMemoryCache(0)
	}
	return &Server{Store: s, Pub: webhooks.NewPublisher(s), Cache: cache, Engine: pack.NewEngine()}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
