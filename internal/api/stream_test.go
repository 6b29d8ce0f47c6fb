package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

func dialStream(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.SearchStreamHandler))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/searches/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSearchStream(t *testing.T) {
	s := newTestServer(t)
	seedListings(t, s, []model.Listing{
		{ID: "A", LocationID: "loc-1", Length: 40, Width: 20, PriceInCents: 1000},
		{ID: "B", LocationID: "loc-2", Length: 40, Width: 20, PriceInCents: 800},
	})
	conn := dialStream(t, s)
	if err := conn.WriteJSON([]model.VehicleQuery{{Length: 10, Quantity: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	results := 0
	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch frame.Type {
		case "location.result":
			results++
			if frame.Result == nil || frame.Result.TotalPriceInCents == 0 {
				t.Fatalf("bad result frame: %+v", frame)
			}
		case "search.complete":
			if frame.Results != results {
				t.Fatalf("complete frame count %d, streamed %d", frame.Results, results)
			}
			if results != 2 {
				t.Fatalf("expected 2 results, got %d", results)
			}
			return
		default:
			t.Fatalf("unexpected frame: %+v", frame)
		}
	}
}

func TestSearchStreamEmptyDemand(t *testing.T) {
	s := newTestServer(t)
	seedListings(t, s, []model.Listing{
		{ID: "A", LocationID: "loc-1", Length: 40, Width: 20, PriceInCents: 1000},
	})
	conn := dialStream(t, s)
	if err := conn.WriteJSON([]model.VehicleQuery{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame streamFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "search.complete" || frame.Results != 0 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestSearchStreamRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	conn := dialStream(t, s)
	if err := conn.WriteJSON([]model.VehicleQuery{{Length: -5, Quantity: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var frame streamFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}
