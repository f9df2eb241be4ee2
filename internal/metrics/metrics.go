package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blogboard",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blogboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	blogMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogboard",
			Subsystem: "blogs",
			Name:      "mutations_total",
			Help:      "Blog mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	versionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blogboard",
			Subsystem: "blogs",
			Name:      "version_conflicts_total",
			Help:      "Conditional blog writes rejected because of a concurrent update.",
		},
	)

	sweptUploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blogboard",
			Subsystem: "janitor",
			Name:      "removed_uploads_total",
			Help:      "Orphaned uploads removed by the janitor.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		blogMutations,
		versionConflicts,
		sweptUploads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordBlogMutation counts a finished blog mutation.
func RecordBlogMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	blogMutations.WithLabelValues(op, outcome).Inc()
}

// RecordVersionConflict counts a rejected conditional write.
func RecordVersionConflict() {
	versionConflicts.Inc()
}

// RecordSweptUploads counts uploads removed by the janitor.
func RecordSweptUploads(n int) {
	if n > 0 {
		sweptUploads.Add(float64(n))
	}
}
