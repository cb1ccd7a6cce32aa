package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusgrid/timetabling/pkg/model"
)

// Run outcomes
const (
	OutcomeComplete  = "complete"
	OutcomePartial   = "partial"
	OutcomeExhausted = "budget_exhausted"
	OutcomeError     = "error"
)

// Metrics encapsulates Prometheus instrumentation for the HTTP surface and the scheduler runs.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	nodesExpanded   prometheus.Histogram
	unplaceable     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// New registers the collectors on a dedicated registry.
func New() *Metrics {
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

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total number of schedule computations by outcome",
	}, []string{"outcome"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Duration of schedule computations in seconds",
		Buckets: prometheus.DefBuckets,
	})

	nodesExpanded := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_nodes_expanded",
		Help:    "Search nodes committed per schedule computation",
		Buckets: prometheus.ExponentialBuckets(10, 10, 7),
	})

	unplaceable := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_unplaceable_sessions_total",
		Help: "Total sessions reported unplaceable by blocking rule",
	}, []string{"rule"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_hits_total",
		Help: "Total schedule cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_misses_total",
		Help: "Total schedule cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, runsTotal, runDuration, nodesExpanded, unplaceable, cacheHits, cacheMisses)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		nodesExpanded:   nodesExpanded,
		unplaceable:     unplaceable,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRun records the outcome of one schedule computation; schedule is nil when the run failed.
func (m *Metrics) ObserveRun(schedule *model.Schedule, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
	m.runsTotal.WithLabelValues(Outcome(schedule)).Inc()
	if schedule == nil {
		return
	}
	m.nodesExpanded.Observe(float64(schedule.NodesExpanded))
	for _, entry := range schedule.Unplaceable {
		m.unplaceable.WithLabelValues(string(entry.Rule)).Inc()
	}
}

// RecordCacheOperation records a schedule cache hit or miss.
func (m *Metrics) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

func Outcome(schedule *model.Schedule) string {
	switch {
	case schedule == nil:
		return OutcomeError
	case schedule.BudgetExhausted:
		return OutcomeExhausted
	case schedule.Partial:
		return OutcomePartial
	default:
		return OutcomeComplete
	}
}
