package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	exports        prometheus.Counter
	catalogQueries prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricewise_http_requests_total",
			Help: "HTTP requests by method, matched route and status.",
		}, []string{"method", "route", "status"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricewise_csv_import_rows_total",
			Help: "CSV import rows by outcome.",
		}, []string{"outcome"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewise_csv_exports_total",
			Help: "Completed CSV exports.",
		}),
		catalogQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewise_catalog_queries_total",
			Help: "Catalog list queries served.",
		}),
	}
	reg.MustRegister(
		m.httpRequests, m.importRows, m.exports, m.catalogQueries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware counts every request once the handler chain has finished.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if m == nil {
			return err
		}
		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		m.httpRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) ImportRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ExportDone() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

func (m *Metrics) CatalogQuery() {
	if m == nil {
		return
	}
	m.catalogQueries.Inc()
}
