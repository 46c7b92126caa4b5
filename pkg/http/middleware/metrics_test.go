package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestMetricsCountsByTemplatedRoute(t *testing.T) {
	e := echo.New()
	e.Use(RequestMetrics())
	e.GET("/api/v1/rules/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/rules/:id", http.MethodGet, "200"))

	for _, id := range []string{"mvrv-top", "extreme-greed"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rules/"+id, nil)
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	// both requests land on the route template, not the raw URLs
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/rules/:id", http.MethodGet, "200"))
	if got-before != 2 {
		t.Fatalf("counter advanced by %v, want 2", got-before)
	}
	if inflight := testutil.ToFloat64(httpInFlight.WithLabelValues("/api/v1/rules/:id", http.MethodGet)); inflight != 0 {
		t.Fatalf("in-flight gauge = %v after completion, want 0", inflight)
	}
}

func TestRequestMetricsRecordsHandlerErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(RequestMetrics())
	e.GET("/api/v1/boom", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/boom", http.MethodGet, "400"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil)
	e.ServeHTTP(rec, req)

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/boom", http.MethodGet, "400"))
	if got-before != 1 {
		t.Fatalf("counter advanced by %v, want 1", got-before)
	}
}
