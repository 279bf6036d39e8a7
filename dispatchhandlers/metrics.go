package dispatchhandlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitalvas/hermod/dispatch"
)

// MetricsConfig configures the Metrics middleware behaviour.
type MetricsConfig struct {
	// Namespace is the metrics namespace. Defaults to "hermod" when empty.
	Namespace string

	// Subsystem is the metrics subsystem. Defaults to "http".
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Defaults to prometheus.DefBuckets.
	Buckets []float64

	// Registry is the registry the collectors are registered with.
	// Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsMiddleware returns a middleware that records Prometheus metrics
// per request:
//
//   - <namespace>_<subsystem>_requests_total, a counter labeled by method,
//     route, and status code
//   - <namespace>_<subsystem>_request_duration_seconds, a histogram labeled
//     by method and route
//
// The route label is the matched pattern with placeholders intact, so its
// cardinality is bounded by the route table; requests resolved to no route
// are labeled "unmatched".
//
// It returns an error when a collector cannot be registered, for example
// when the middleware is constructed twice against one registry.
func MetricsMiddleware(cfg MetricsConfig) (dispatch.Middleware, error) {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "hermod"
	}
	subsystem := cfg.Subsystem
	if subsystem == "" {
		subsystem = "http"
	}
	buckets := cfg.Buckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "requests_total",
		Help:        "Total number of dispatched requests.",
		ConstLabels: cfg.ConstLabels,
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "request_duration_seconds",
		Help:        "Request handling duration in seconds.",
		ConstLabels: cfg.ConstLabels,
		Buckets:     buckets,
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{requests, duration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusResponseWriter(w)
			next.ServeHTTP(sw, r)

			route := routePattern(r)
			requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
			duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}, nil
}
