package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultMetricsNamespace = "chitchat"

// requestLabels partition request metrics. The group label carries the API
// area (auth, verification, password, users, chats) so per-flow rates can
// be graphed without enumerating routes.
var requestLabels = []string{"method", "group", "route", "status"}

// HTTPMetrics instruments requests with Prometheus collectors.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the request collectors under the namespace and
// returns the middleware state. Registering against the same registerer
// twice hands back the existing collectors, so tests can build several
// engines against the default registry.
func NewHTTPMetrics(reg prometheus.Registerer, namespace string) (*HTTPMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}

	requests, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests partitioned by method, API group, route, and status code.",
	}, requestLabels))
	if err != nil {
		return nil, fmt.Errorf("register requests collector: %w", err)
	}

	latency, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds, same partitioning as requests_total.",
		Buckets:   prometheus.DefBuckets,
	}, requestLabels))
	if err != nil {
		return nil, fmt.Errorf("register latency collector: %w", err)
	}

	inFlight, err := registerOrReuse[prometheus.Gauge](reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	}))
	if err != nil {
		return nil, fmt.Errorf("register in-flight collector: %w", err)
	}

	return &HTTPMetrics{
		requests: requests,
		latency:  latency,
		inFlight: inFlight,
	}, nil
}

// registerOrReuse registers the collector, handing back the already
// registered one when a collector with the same descriptor exists.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return collector, nil
}

// Handler returns a Gin middleware recording the HTTP metrics. The scrape
// endpoint itself is not instrumented.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		m.inFlight.Inc()
		c.Next()
		m.inFlight.Dec()

		labels := prometheus.Labels{
			"method": c.Request.Method,
			"group":  routeGroup(route),
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		m.requests.With(labels).Inc()
		m.latency.With(labels).Observe(time.Since(start).Seconds())
	}
}

// routeGroup extracts the API area from a matched route, e.g.
// /api/v1/auth/login -> auth. Routes outside the API fall under "system".
func routeGroup(route string) string {
	const apiPrefix = "/api/v1/"
	if !strings.HasPrefix(route, apiPrefix) {
		return "system"
	}
	group := strings.TrimPrefix(route, apiPrefix)
	if i := strings.IndexByte(group, '/'); i >= 0 {
		group = group[:i]
	}
	if group == "" {
		return "system"
	}
	return group
}
