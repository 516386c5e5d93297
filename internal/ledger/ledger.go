package ledger

import (
	"context"
	"iter"
	"sync"
)

// Ledger is the append-only source of truth for attempts. Mastery is derived
// from it by replay.
type Ledger interface {
	// Append stores ev and returns it with its assigned sequence number.
	Append(ctx context.Context, ev Event) (Event, error)

	// EventsFor yields the learner's events in insertion order. The sequence
	// is lazy and may be iterated more than once.
	EventsFor(ctx context.Context, learnerID string) iter.Seq2[Event, error]
}

// Memory is an in-process Ledger.
type Memory struct {
	mu     sync.RWMutex
	seq    int64
	events []Event
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ctx context.Context, ev Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ev.Sequence = m.seq
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *Memory) EventsFor(ctx context.Context, learnerID string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		m.mu.RLock()
		n := len(m.events)
		m.mu.RUnlock()

		// Events appended after iteration starts are not visited.
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}
			m.mu.RLock()
			ev := m.events[i]
			m.mu.RUnlock()
			if ev.LearnerID != learnerID {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored events across all learners.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Collect drains an event sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Event, error]) ([]Event, error) {
	var out []Event
	for ev, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
	return out, nil
}
