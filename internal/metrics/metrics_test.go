package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()
	m.Attempts.WithLabelValues("new").Inc()
	m.Attempts.WithLabelValues("review").Add(2)
	m.RejectedEvents.Inc()
	m.SelectionLatency.Observe(0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("new")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts.WithLabelValues("review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedEvents))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Attempts)+testutil.CollectAndCount(m.RejectedEvents))
}

func TestSummary(t *testing.T) {
	m := New()
	m.Decisions.WithLabelValues("pick").Add(3)
	m.Decisions.WithLabelValues("complete").Inc()
	m.SelectionLatency.Observe(0.01)
	m.SelectionLatency.Observe(0.02)

	sum, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 4.0, sum["noobular_decisions_total"])
	assert.Equal(t, 2.0, sum["noobular_selection_duration_seconds"])
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Rebuilds.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Rebuilds))
}
