// Package metrics exposes Prometheus instruments for ledger operations,
// calendar view refreshes and change events.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nutrilog"

// Result label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// ledgerOperations counts store operations.
	// Labels: operation (fetch, append, replace, ...), result (success, error)
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Total ledger operations by outcome",
	}, []string{"operation", "result"})

	// ledgerDuration measures store operation latency, including the wait
	// for the per-key lock.
	ledgerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger operation latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	// staleFetches counts month fetches whose result was discarded because
	// the grid changed while they were in flight.
	staleFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "view",
		Name:      "stale_fetches_total",
		Help:      "Month fetches discarded because a newer grid was requested",
	})

	// eventsPublished counts ledger change events.
	// Labels: result (success, error)
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Ledger change events published by outcome",
	}, []string{"result"})
)

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveOperation records the outcome and latency of an operation that
// started at start.
func ObserveOperation(operation string, start time.Time, err error) {
	ledgerOperations.WithLabelValues(operation, result(err)).Inc()
	ledgerDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// StaleFetch records a discarded month fetch.
func StaleFetch() {
	staleFetches.Inc()
}

// EventPublished records a change event publish attempt.
func EventPublished(err error) {
	eventsPublished.WithLabelValues(result(err)).Inc()
}
