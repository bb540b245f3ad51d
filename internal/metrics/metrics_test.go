package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/todos", "200", 10*time.Millisecond)
	m.ObserveRequest("GET", "/todos", "200", 10*time.Millisecond)
	m.ObserveCache("list", true)
	m.ObserveCache("list", false)
	m.ObserveEvent("created", nil)
	m.ObserveEvent("created", errors.New("boom"))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/todos", "200")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("list", "hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("created", "failed")); got != 1 {
		t.Errorf("failed events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("created", "delivered")); got != 1 {
		t.Errorf("delivered events = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", "200", time.Second)
	m.ObserveCache("item", true)
	m.ObserveEvent("deleted", nil)
	m.RegisterDB(nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("DELETE", "/todos/:id", "404", time.Millisecond)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `todo_http_requests_total{method="DELETE",route="/todos/:id",status="404"} 1`) {
		t.Fatalf("counter missing from exposition:\n%s", rec.Body.String())
	}
}
