package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func attempt(learner, node string, at time.Time) Event {
	return Event{
		LearnerID:   learner,
		NodeID:      node,
		Timestamp:   at,
		Outcome:     OutcomePass,
		Score:       1,
		EffortSpent: 1,
	}
}

type nodeSet map[string]bool

func (s nodeSet) Has(id string) bool { return s[id] }

func TestMemory_AppendAssignsSequence(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.Append(ctx, attempt("ana", "a", t0))
	require.NoError(t, err)
	b, err := m.Append(ctx, attempt("ben", "a", t0))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.Sequence)
	assert.Equal(t, int64(2), b.Sequence)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_EventsForFiltersAndOrders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i, node := range []string{"a", "b", "c"} {
		_, err := m.Append(ctx, attempt("ana", node, t0.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		_, err = m.Append(ctx, attempt("ben", node, t0))
		require.NoError(t, err)
	}

	events, err := Collect(m.EventsFor(ctx, "ana"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, events[i].NodeID)
		assert.Equal(t, "ana", events[i].LearnerID)
	}
	assert.Less(t, events[0].Sequence, events[1].Sequence)
}

func TestMemory_EventsForIsRestartable(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.Append(ctx, attempt("ana", "a", t0))
	_, _ = m.Append(ctx, attempt("ana", "b", t0))

	seq := m.EventsFor(ctx, "ana")
	first, err := Collect(seq)
	require.NoError(t, err)
	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemory_EventsForStopsEarly(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for range 5 {
		_, _ = m.Append(ctx, attempt("ana", "a", t0))
	}
	n := 0
	for range m.EventsFor(ctx, "ana") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory()
	_, _ = m.Append(context.Background(), attempt("ana", "a", t0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(m.EventsFor(ctx, "ana"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = m.Append(ctx, attempt("ana", "a", t0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecked_RejectsInvalidEvents(t *testing.T) {
	nodes := nodeSet{"a": true}
	tests := []struct {
		name   string
		mutate func(*Event)
		reason string
	}{
		{"unknown node", func(e *Event) { e.NodeID = "ghost" }, "unknown node"},
		{"empty learner", func(e *Event) { e.LearnerID = "" }, "empty learner"},
		{"score above one", func(e *Event) { e.Score = 1.5 }, "outside [0,1]"},
		{"negative score", func(e *Event) { e.Score = -0.1 }, "outside [0,1]"},
		{"negative effort", func(e *Event) { e.EffortSpent = -1 }, "effort"},
		{"bad outcome", func(e *Event) { e.Outcome = "maybe" }, "unknown outcome"},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemory()
			c := NewChecked(mem, nodes)
			ev := attempt("ana", "a", t0)
			tt.mutate(&ev)

			_, err := c.Append(context.Background(), ev)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEvent))

			var invalid *InvalidEventError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Reason, tt.reason)
			assert.Equal(t, 0, mem.Len(), "rejected event must not be stored")
		})
	}
}

func TestChecked_AcceptsValidEvent(t *testing.T) {
	mem := NewMemory()
	c := NewChecked(mem, nodeSet{"a": true})

	ev, err := c.Append(context.Background(), attempt("ana", "a", t0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.Sequence)

	events, err := Collect(c.EventsFor(context.Background(), "ana"))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParseOutcome(t *testing.T) {
	for _, s := range []string{"pass", "fail", "partial"} {
		o, err := ParseOutcome(s)
		require.NoError(t, err)
		assert.Equal(t, Outcome(s), o)
	}
	_, err := ParseOutcome("PASS")
	assert.Error(t, err)

	assert.Equal(t, 1.0, OutcomePass.DefaultScore())
	assert.Equal(t, 0.5, OutcomePartial.DefaultScore())
	assert.Equal(t, 0.0, OutcomeFail.DefaultScore())
}
