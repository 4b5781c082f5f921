package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations counts handled operations by name and outcome code.
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawclub",
		Name:      "operations_total",
		Help:      "Operations handled, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// SideEffects counts deferred side effects by kind and result
	// (dispatched, failed, executed, dead_lettered).
	SideEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawclub",
		Name:      "side_effects_total",
		Help:      "Deferred side effects, by kind and result.",
	}, []string{"kind", "result"})

	// Affected counts rows changed by batch jobs.
	Affected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawclub",
		Name:      "batch_rows_total",
		Help:      "Rows changed by batch jobs, by job.",
	}, []string{"job"})
)
