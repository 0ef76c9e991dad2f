package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ImportRows("inserted", 3)
	m.ExportDone()
	m.CatalogQuery()
}

func TestCounters(t *testing.T) {
	m := New()
	m.ImportRows("inserted", 3)
	m.ImportRows("skipped_duplicate", 1)
	m.ImportRows("skipped_invalid", 0)
	m.ExportDone()
	m.CatalogQuery()
	m.CatalogQuery()

	if got := testutil.ToFloat64(m.importRows.WithLabelValues("inserted")); got != 3 {
		t.Errorf("inserted = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.exports); got != 1 {
		t.Errorf("exports = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.catalogQueries); got != 2 {
		t.Errorf("catalog queries = %v, want 2", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/api/smartphones/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("missing")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/smartphones/999", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/smartphones/:id", "404")); got != 1 {
		t.Errorf("request counter = %v, want 1", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "pricewise_http_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}
