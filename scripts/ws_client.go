// Package main runs a demo WebSocket client for the search stream.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Seed a few listings
	body := []byte(`{"listings":[
		{"id":"demo-a","location_id":"loc-demo-1","length":40,"width":20,"price_in_cents":1000},
		{"id":"demo-b","location_id":"loc-demo-2","length":30,"width":10,"price_in_cents":750}
	]}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("import status: %s", resp.Status)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/searches/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	// Send the vehicle demand
	demand := []map[string]int{{"length": 10, "quantity": 2}}
	if err := c.WriteJSON(demand); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame map[string]any
			if err := c.ReadJSON(&frame); err != nil {
				log.Printf("read: %v", err)
				return
			}
			b, _ := json.Marshal(frame)
			log.Printf("WS <- %s", string(b))
			if frame["type"] == "search.complete" {
				return
			}
		}
	}()

	select {
	case <-time.After(5 * time.Second):
	case <-done:
	}
}
