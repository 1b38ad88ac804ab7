// Package metrics owns the process-wide Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutorials"

// Metrics is created once at startup and shared by every handler.
type Metrics struct {
	Registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	stored    prometheus.Gauge
	published prometheus.Gauge
}

// New registers the request counter, the inventory gauges and the default
// Go and process collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Handled requests by HTTP method and response status code.",
		}, []string{"method", "status"}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored",
			Help:      "Tutorials stored at the last inventory refresh.",
		}),
		published: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published",
			Help:      "Published tutorials at the last inventory refresh.",
		}),
	}

	m.Registry.MustRegister(
		m.requests,
		m.stored,
		m.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest increments the request counter for method and status.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// SetInventory records the latest stored and published counts.
func (m *Metrics) SetInventory(stored, published int64) {
	m.stored.Set(float64(stored))
	m.published.Set(float64(published))
}

// Handler serves the text exposition of the registry. Collection failures
// answer 500 and are reported to errorLog.
func (m *Metrics) Handler(errorLog promhttp.Logger) http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog:      errorLog,
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
