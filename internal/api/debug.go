package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":                 os.Getenv("PORT"),
			"LISTINGS_PATH":        os.Getenv("LISTINGS_PATH"),
			"RATE_RPS":             os.Getenv("RATE_RPS"),
			"RATE_BURST":           os.Getenv("RATE_BURST"),
			"SEARCH_MAX_SUBSET":    os.Getenv("SEARCH_MAX_SUBSET"),
			"SEARCH_WORKERS":       os.Getenv("SEARCH_WORKERS"),
			"SEARCH_CACHE_TTL":     os.Getenv("SEARCH_CACHE_TTL"),
			"WEBHOOK_MAX_ATTEMPTS": os.Getenv("WEBHOOK_MAX_ATTEMPTS"),
			"HAS_DATABASE_URL":     os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":        os.Getenv("REDIS_URL") != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
