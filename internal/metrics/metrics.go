// Package metrics exposes Prometheus collectors for the warming engine.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	warmTargetsTotal           *prometheus.CounterVec
	warmAttemptsTotal          *prometheus.CounterVec
	warmRequestDurationSeconds *prometheus.HistogramVec
	warmRateLimitWaitSeconds   *prometheus.HistogramVec
	warmActiveWorkers          prometheus.Gauge
	warmRunsTotal              *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		warmTargetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warm_targets_total",
				Help: "Terminal warming outcomes, labeled by edge location and result.",
			},
			[]string{"location", "result"},
		)

		warmAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warm_attempts_total",
				Help: "Individual warming request attempts, labeled by location and status code.",
			},
			[]string{"location", "code"},
		)

		warmRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warm_request_duration_seconds",
				Help:    "Histogram of warming request latencies, labeled by edge location.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"location"},
		)

		warmRateLimitWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warm_rate_limit_wait_seconds",
				Help:    "Time workers spent waiting on the per-location rate gate.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"location"},
		)

		warmActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warm_active_workers",
				Help: "Number of workers currently executing a warming request.",
			},
		)

		warmRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warm_runs_total",
				Help: "Completed runs, labeled by terminal status.",
			},
			[]string{"status"},
		)
	})
}

// ObserveTarget records a terminal outcome for one warm target.
func ObserveTarget(location string, success bool, latency time.Duration) {
	if warmTargetsTotal == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	warmTargetsTotal.WithLabelValues(location, result).Inc()
	warmRequestDurationSeconds.WithLabelValues(location).Observe(latency.Seconds())
}

// ObserveAttempt records a single request attempt.
func ObserveAttempt(location string, statusCode int) {
	if warmAttemptsTotal == nil {
		return
	}
	warmAttemptsTotal.WithLabelValues(location, strconv.Itoa(statusCode)).Inc()
}

// ObserveRateLimitWait records how long one worker waited on the gate.
func ObserveRateLimitWait(location string, wait time.Duration) {
	if warmRateLimitWaitSeconds == nil {
		return
	}
	warmRateLimitWaitSeconds.WithLabelValues(location).Observe(wait.Seconds())
}

// ObserveRun records the terminal status of a run.
func ObserveRun(status string) {
	if warmRunsTotal == nil {
		return
	}
	warmRunsTotal.WithLabelValues(status).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if warmActiveWorkers != nil {
		warmActiveWorkers.Inc()
	}
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if warmActiveWorkers != nil {
		warmActiveWorkers.Dec()
	}
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Router mounts /metrics and /healthz for the optional metrics listener.
func Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
