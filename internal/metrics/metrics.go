// Package metrics exposes Prometheus instrumentation for the dev server:
// propagation passes by outcome and recovered computation failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Propagation outcomes used as label values.
const (
	ResultOK       = "ok"
	ResultCycle    = "cycle"
	ResultRejected = "rejected"
)

var (
	// PropagationsTotal counts propagation passes by result.
	PropagationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rh_propagations_total",
		Help: "Propagation passes executed, labelled by result.",
	}, []string{"result"})

	// PropagationDuration observes wall time per propagation pass.
	PropagationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rh_propagation_duration_seconds",
		Help:    "Wall time of a single propagation pass.",
		Buckets: prometheus.DefBuckets,
	})

	// ComputationFailures counts per-step computation failures that were
	// recovered by keeping the prior value.
	ComputationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rh_computation_failures_total",
		Help: "Recovered computation failures during propagation.",
	})

	// SessionsActive tracks open websocket sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rh_sessions_active",
		Help: "Currently open live-edit sessions.",
	})
)
