package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const namespace = "shop"

// Metrics holds the collectors the shop reports on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	ProductOps     *prometheus.CounterVec
	Requests       *prometheus.CounterVec
	Checkouts      prometheus.Counter
	RateLimited    prometheus.Counter
	DroppedEvents  prometheus.Counter
	BlobDeleteErrs prometheus.Counter
}

// New builds a private registry so tests never collide on registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProductOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_operations_total",
			Help:      "Catalog operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		Checkouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_relayed_total",
			Help:      "Checkout payloads relayed by the bot.",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "API requests rejected by the rate limiter.",
		}),
		DroppedEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Catalog events a slow subscriber missed.",
		}),
		BlobDeleteErrs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_delete_failures_total",
			Help:      "Image deletions that failed and left an orphaned blob.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome labels an operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
