// Package metrics holds the scheduler's Prometheus collectors on a private
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the tutor service updates.
type Metrics struct {
	Registry *prometheus.Registry

	Attempts         *prometheus.CounterVec
	RejectedEvents   prometheus.Counter
	Decisions        *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	SelectionLatency prometheus.Histogram
	Rebuilds         prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noobular",
				Name:      "attempts_total",
				Help:      "Attempts recorded, by category.",
			},
			[]string{"category"},
		),
		RejectedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noobular",
			Name:      "rejected_events_total",
			Help:      "Attempts rejected as invalid.",
		}),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noobular",
				Name:      "decisions_total",
				Help:      "Next-item decisions, by kind.",
			},
			[]string{"kind"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noobular",
				Name:      "mastery_transitions_total",
				Help:      "Mastery state changes, by trigger.",
			},
			[]string{"trigger"},
		),
		SelectionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "noobular",
			Name:      "selection_duration_seconds",
			Help:      "Time spent computing a next-item decision.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noobular",
			Name:      "mastery_rebuilds_total",
			Help:      "Mastery cache rebuilds from the ledger.",
		}),
	}
	m.Registry.MustRegister(
		m.Attempts,
		m.RejectedEvents,
		m.Decisions,
		m.Transitions,
		m.SelectionLatency,
		m.Rebuilds,
	)
	return m
}

// Summary returns counter totals and histogram sample counts by metric
// name, for printing at the end of a CLI run.
func (m *Metrics) Summary() (map[string]float64, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = total
	}
	return out, nil
}
