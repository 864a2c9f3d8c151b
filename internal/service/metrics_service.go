package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schedule-hub/timetable-api/internal/dto"
)

// Solver run outcomes recorded against the runs counter.
const (
	SolverOutcomeSolved        = "solved"
	SolverOutcomeUnsatisfiable = "unsatisfiable"
	SolverOutcomeTimeout       = "timeout"
	SolverOutcomeInvalid       = "invalid_input"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the constraint solver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	solverRuns        *prometheus.CounterVec
	solverDuration    prometheus.Observer
	solverBacktracks  prometheus.Observer
	solverConstraints prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	solverRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Solver generation requests by outcome",
	}, []string{"outcome"})

	solverDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "Wall-clock duration of full generation requests",
		Buckets: []float64{0.01, 0.05, 0.25, 1, 2.5, 5, 10, 30},
	})

	solverBacktracks := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_backtracks",
		Help:    "Backtracking steps per generation request",
		Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
	})

	solverConstraints := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_constraints_checked_total",
		Help: "Hard constraint evaluations across all runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		solverRuns, solverDuration, solverBacktracks, solverConstraints, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		solverRuns:        solverRuns,
		solverDuration:    solverDuration,
		solverBacktracks:  solverBacktracks,
		solverConstraints: solverConstraints,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolverRun records the outcome and counters of a generation request.
func (m *MetricsService) ObserveSolverRun(outcome string, duration time.Duration, candidates []dto.TimetableCandidate) {
	if m == nil {
		return
	}
	m.solverRuns.WithLabelValues(outcome).Inc()
	m.solverDuration.Observe(duration.Seconds())
	backtracks := 0
	constraints := 0
	for _, candidate := range candidates {
		backtracks += candidate.Stats.Backtracks
		constraints += candidate.Stats.ConstraintsChecked
	}
	m.solverBacktracks.Observe(float64(backtracks))
	m.solverConstraints.Add(float64(constraints))
}
