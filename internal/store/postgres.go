package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the schema if missing (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			location_id TEXT NOT NULL,
			length INT NOT NULL CHECK (length > 0),
			width INT NOT NULL CHECK (width > 0),
			price_cents INT NOT NULL CHECK (price_cents >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS listings_location_idx ON listings (location_id)`,
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			vehicles JSONB NOT NULL,
			results INT NOT NULL,
			duration_ms INT NOT NULL,
			cache_hit BOOLEAN NOT NULL,
			ts TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			events TEXT[] NOT NULL,
			secret TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id TEXT PRIMARY KEY,
			subscription_id TEXT,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload BYTEA,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT,
			response_code INT,
			latency_ms INT,
			delivered_at TIMESTAMPTZ
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) ImportListings(ctx context.Context, listings []model.Listing) (string, int, int, error) {
	importID := "imp_" + uuid.New().String()
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	created, skipped := 0, 0
	for _, l := range listings {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.LocationID == "" || l.Length <= 0 || l.Width <= 0 || l.PriceInCents < 0 {
			skipped++
			continue
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO listings (id, location_id, length, width, price_cents) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (id) DO NOTHING`,
			l.ID, l.LocationID, l.Length, l.Width, l.PriceInCents)
		if err != nil {
			return "", 0, 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			skipped++
		} else {
			created++
		}
	}
	if err := tx.Commit(); err != nil {
		return "", 0, 0, err
	}
	return importID, created, skipped, nil
}

func (p *Postgres) ListListings(ctx context.Context, locationID, cursor string, limit int) ([]model.Listing, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	// Cursor is the last listing id of the previous page.
	switch {
	case locationID != "" && cursor != "":
		rows, err = p.db.QueryContext(ctx, `SELECT id, location_id, length, width, price_cents FROM listings WHERE location_id=$1 AND id > $2 ORDER BY id LIMIT $3`, locationID, cursor, limit)
	case locationID != "":
		rows, err = p.db.QueryContext(ctx, `SELECT id, location_id, length, width, price_cents FROM listings WHERE location_id=$1 ORDER BY id LIMIT $2`, locationID, limit)
	case cursor != "":
		rows, err = p.db.QueryContext(ctx, `SELECT id, location_id, length, width, price_cents FROM listings WHERE id > $1 ORDER BY id LIMIT $2`, cursor, limit)
	default:
		rows, err = p.db.QueryContext(ctx, `SELECT id, location_id, length, width, price_cents FROM listings ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Listing{}
	var last string
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.LocationID, &l.Length, &l.Width, &l.PriceInCents); err != nil {
			return nil, "", err
		}
		out = append(out, l)
		last = l.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) ListingsByLocation(ctx context.Context) (map[string][]model.Listing, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, location_id, length, width, price_cents FROM listings ORDER BY location_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.LocationID, &l.Length, &l.Width, &l.PriceInCents); err != nil {
			return nil, err
		}
		out[l.LocationID] = append(out[l.LocationID], l)
	}
	return out, rows.Err()
}

func (p *Postgres) ListLocations(ctx context.Context) ([]model.LocationSummary, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT location_id, count(*) FROM listings GROUP BY location_id ORDER BY location_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.LocationSummary{}
	for rows.Next() {
		var s model.LocationSummary
		if err := rows.Scan(&s.LocationID, &s.Listings); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) RecordSearch(ctx context.Context, rec model.SearchRecord) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO searches (id, vehicles, results, duration_ms, cache_hit, ts) VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, toJSON(rec.Vehicles), rec.Results, rec.DurationMs, rec.CacheHit, parseTS(rec.TS))
	return err
}

func (p *Postgres) ListSearches(ctx context.Context, cursor string, limit int) ([]model.SearchRecord, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id, vehicles, results, duration_ms, cache_hit, ts FROM searches WHERE ts < (SELECT ts FROM searches WHERE id=$1) ORDER BY ts DESC LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id, vehicles, results, duration_ms, cache_hit, ts FROM searches ORDER BY ts DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.SearchRecord{}
	var last string
	for rows.Next() {
		var rec model.SearchRecord
		var vehicles []byte
		var ts time.Time
		if err := rows.Scan(&rec.ID, &vehicles, &rec.Results, &rec.DurationMs, &rec.CacheHit, &ts); err != nil {
			return nil, "", err
		}
		_ = json.Unmarshal(vehicles, &rec.Vehicles)
		rec.TS = ts.UTC().Format(time.RFC3339)
		out = append(out, rec)
		last = rec.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		s.ID, s.URL, pgTextArray(s.Events), s.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM subscriptions WHERE $1 = ANY(events)`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM subscriptions WHERE id > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM subscriptions ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events string
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		s.Events = fromPGTextArray(events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, nullIfEmpty(subscriptionID), eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, coalesce(subscription_id,''), event_type, url, secret, payload, status, attempts FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, response_code=$2, latency_ms=$3, delivered_at=now() WHERE id=$1`, id, responseCode, latencyMs)
		return err
	}
	next := time.Now().Add(1 * time.Minute)
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='retry', attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
		id, next, nullIfEmpty(lastError), responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, nullIfEmpty(lastError), responseCode, latencyMs)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id, event_type, status, attempts, url, next_attempt_at, coalesce(last_error,'') FROM webhook_deliveries`
	args := []any{}
	var conds []string
	if status != "" {
		args = append(args, status)
		conds = append(conds, `status=$1`)
	}
	if cursor != "" {
		args = append(args, cursor)
		conds = append(conds, `id > $`+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	q += ` ORDER BY id LIMIT $` + strconv.Itoa(len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []map[string]any{}
	var last string
	for rows.Next() {
		var id, eventType, st, url, lastErr string
		var attempts int
		var nextAt time.Time
		if err := rows.Scan(&id, &eventType, &st, &attempts, &url, &nextAt, &lastErr); err != nil {
			return nil, "", err
		}
		item := map[string]any{"id": id, "eventType": eventType, "status": st, "attempts": attempts, "url": url, "nextAttemptAt": nextAt}
		if lastErr != "" {
			item["lastError"] = lastErr
		}
		out = append(out, item)
		last = id
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// helpers

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func toJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// pgTextArray renders a []string as a Postgres text[] literal; nil for empty.
func pgTextArray(ss []string) any {
	if len(ss) == 0 {
		return nil
	}
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

func fromPGTextArray(s string) []string {
	s = strings.Trim(s, "{}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(p, `"`))
	}
	return out
}
