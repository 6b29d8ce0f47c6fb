package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
	"github.com/OrangePeelr/MultiVehicleSearch/internal/pack"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type streamFrame struct {
	Type    string                `json:"type"`
	Result  *model.LocationResult `json:"result,omitempty"`
	Results int                   `json:"results,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// SearchStreamHandler handles /v1/searches/stream. The client sends one JSON
// array of vehicle queries; each feasible location is pushed as its own frame
// as the engine finds it, followed by a completion frame.
func (s *Server) SearchStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	var queries []model.VehicleQuery
	if err := conn.ReadJSON(&queries); err != nil {
		_ = conn.WriteJSON(streamFrame{Type: "error", Error: "invalid request"})
		return
	}
	if err := validateVehicleQueries(queries); err != nil {
		_ = conn.WriteJSON(streamFrame{Type: "error", Error: err.Error()})
		return
	}

	vehicles := pack.Flatten(queries)
	count := 0
	if len(vehicles) > 0 {
		byLoc, err := s.Store.ListingsByLocation(r.Context())
		if err != nil {
			_ = conn.WriteJSON(streamFrame{Type: "error", Error: err.Error()})
			return
		}
		// Each serializes callbacks, so writing to the conn here is safe.
		s.Engine.Each(byLoc, vehicles, func(res model.LocationResult) {
			count++
			_ = conn.WriteJSON(streamFrame{Type: "location.result", Result: &res})
		})
	}
	_ = conn.WriteJSON(streamFrame{Type: "search.complete", Results: count})
}
