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

	// LedgerAdjustments counts committed wallet changes by transaction type.
	LedgerAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "ledger",
			Name:      "adjustments_total",
			Help:      "Total number of wallet balance adjustments.",
		},
		[]string{"type"},
	)

	// LedgerRejections counts adjustments refused by the ledger.
	LedgerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Total number of rejected balance adjustments.",
		},
		[]string{"reason"},
	)

	// RequestTransitions counts approval request state changes.
	RequestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total number of approval request transitions.",
		},
		[]string{"type", "status"},
	)

	// AdvisorCalls counts advisory completions by outcome.
	AdvisorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "advisor",
			Name:      "calls_total",
			Help:      "Total number of advisory calls by outcome.",
		},
		[]string{"outcome"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "earnyard",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "earnyard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "earnyard",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of scheduled job runs.",
		},
		[]string{"job", "success"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "earnyard",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"job"},
	)
)

func init() {
	Registry.MustRegister(
		LedgerAdjustments,
		LedgerRejections,
		RequestTransitions,
		AdvisorCalls,
		httpInFlight,
		httpRequests,
		httpDuration,
		jobRuns,
		jobDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency keyed by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordJobRun records metrics for a scheduled job execution.
func RecordJobRun(job string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
