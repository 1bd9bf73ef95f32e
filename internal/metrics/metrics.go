package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	strategyOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accrual",
			Subsystem: "strategy",
			Name:      "operations_total",
			Help:      "Strategy operations by name and result.",
		},
		[]string{"operation", "result"},
	)

	shortfallMints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accrual",
			Subsystem: "strategy",
			Name:      "shortfall_mints_total",
			Help:      "Shortfall top-ups minted by the strategy, by triggering operation.",
		},
		[]string{"operation"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accrual",
			Subsystem: "strategy",
			Name:      "side_effect_failures_total",
			Help:      "Journal writes and event publishes that failed after an operation committed.",
		},
		[]string{"kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accrual",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "accrual",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		strategyOperations,
		shortfallMints,
		sideEffectFailures,
		httpRequests,
		httpDuration,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation counts one strategy call.
func RecordOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	strategyOperations.WithLabelValues(operation, result).Inc()
}

// RecordShortfallMint counts a mint made to cover a deposit top-up or a
// withdrawal shortfall.
func RecordShortfallMint(operation string) {
	shortfallMints.WithLabelValues(operation).Inc()
}

// RecordSideEffectFailure counts a journal write or publish that failed after
// the call itself had committed.
func RecordSideEffectFailure(kind string) {
	sideEffectFailures.WithLabelValues(kind).Inc()
}

// InstrumentHandler wraps next with request counting and timing. path should
// be the route template, not the raw URL, to keep label cardinality bounded.
func InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
