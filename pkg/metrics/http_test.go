package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPMetrics_ObserveAndScrape(t *testing.T) {
	m := NewHTTPMetrics()
	m.Observe("GET", "/api/v1/orders", 200, 42*time.Millisecond)
	m.Observe("GET", "/api/v1/orders", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Fatalf("expected scrape output to contain request counter, got:\n%s", body)
	}
	if !strings.Contains(body, `path="/api/v1/orders"`) {
		t.Fatal("expected per-path label in scrape output")
	}
}

func TestHTTPMetrics_NilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/x", 200, time.Millisecond) // must not panic
	if m.Handler() == nil {
		t.Fatal("expected fallback handler")
	}
}
