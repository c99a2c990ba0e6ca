// Package metrics provides Prometheus metrics collection for WellGate.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for WellGate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Proxy metrics
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyErrors        *prometheus.CounterVec
	UpstreamDuration   *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics on reg. Tests pass their own registry
// so collectors do not collide across test cases.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wellgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wellgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wellgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		ProxyRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wellgate",
				Name:      "proxy_requests_total",
				Help:      "Total number of proxied requests by target",
			},
			[]string{"target", "method", "status"},
		),
		ProxyErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wellgate",
				Name:      "proxy_errors_total",
				Help:      "Total number of proxy failures by target and reason",
			},
			[]string{"target", "reason"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wellgate",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"target", "method"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wellgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wellgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
	}
}

// NormalizePath reduces a URL path to a low-cardinality metrics label.
// Proxy paths collapse to their mount point since the suffix is arbitrary
// upstream territory; local API paths keep at most three segments.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/proxy/backend") {
		return "/proxy/backend"
	}
	if strings.HasPrefix(path, "/proxy/authprovider") {
		return "/proxy/authprovider"
	}
	trimmed := strings.TrimPrefix(path, "/")
	segments := strings.SplitN(trimmed, "/", 4)
	if len(segments) > 3 {
		return "/" + strings.Join(segments[:3], "/")
	}
	return path
}
