package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/driftice/gcdserver/dbopen"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("GET", "/calibration", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/calibration", 200, 7*time.Millisecond)
	m.ObserveRequest("POST", "/gcd/generate/{run_number}", 500, time.Millisecond)

	got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/calibration", "200"))
	if got != 2 {
		t.Fatalf("request counter: expected 2, got %f", got)
	}
	got = testutil.ToFloat64(m.requests.WithLabelValues("POST", "/gcd/generate/{run_number}", "500"))
	if got != 1 {
		t.Fatalf("request counter: expected 1, got %f", got)
	}
}

func TestMetrics_SnapshotGenerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SnapshotGenerated("ok", 60)
	m.SnapshotGenerated("error", 0)

	if got := testutil.ToFloat64(m.snapshots.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok counter: expected 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.snapshots.WithLabelValues("error")); got != 1 {
		t.Fatalf("error counter: expected 1, got %f", got)
	}
	if samples := testutil.CollectAndCount(m.resolvedCal); samples != 1 {
		t.Fatalf("resolved histogram: expected 1 series, got %d", samples)
	}
}

func TestMetrics_HTTPMiddleware_RoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/calibration/{dom_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/calibration/161", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/calibration/{dom_id}", "200"))
	if got != 1 {
		t.Fatalf("expected pattern-labelled counter 1, got %f", got)
	}
}

func TestEventLogger(t *testing.T) {
	db := dbopen.OpenMemory(t)
	logger := NewEventLogger(db)
	if err := logger.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	ctx := context.Background()
	logger.LogEvent(ctx, BusinessEvent{
		EventType:  "snapshot_generated",
		EntityType: "snapshot",
		EntityID:   "some-uuid",
		UserID:     "operator@pole.example",
		Action:     "generate",
		Success:    true,
	})

	var (
		eventID string
		userID  string
		success bool
	)
	err := db.QueryRow(`
		SELECT event_id, user_id, success FROM business_event_logs`).
		Scan(&eventID, &userID, &success)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.HasPrefix(eventID, "evt_") {
		t.Fatalf("event id: got %q", eventID)
	}
	if userID != "operator@pole.example" || !success {
		t.Fatalf("event mangled: %q %v", userID, success)
	}
}

func TestEventLogger_Cleanup(t *testing.T) {
	db := dbopen.OpenMemory(t)
	logger := NewEventLogger(db)
	if err := logger.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	old := time.Now().AddDate(0, 0, -30).Unix()
	if _, err := db.Exec(`
		INSERT INTO business_event_logs
		(event_id, event_type, entity_type, entity_id, user_id, action, details, success, created_at)
		VALUES ('evt_old','t','e','1','u','a','',1,?)`, old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := logger.Cleanup(context.Background(), 7); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM business_event_logs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected old events purged, got %d rows", n)
	}

	// Retention 0 is a no-op.
	if err := logger.Cleanup(context.Background(), 0); err != nil {
		t.Fatalf("cleanup disabled: %v", err)
	}
}
