package mastery

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/noobular/noobular/internal/ledger"
)

// Model applies attempts to records and evaluates decay. It holds no
// learner state; every method is a pure function of its arguments.
type Model struct {
	cfg Config
}

// NewModel returns a model using cfg.
func NewModel(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// Config returns the model parameters.
func (m *Model) Config() Config {
	return m.cfg
}

// Threshold returns the mastery threshold.
func (m *Model) Threshold() float64 {
	return m.cfg.Threshold
}

// HalfLifeFor returns the decay constant used for nodeID.
func (m *Model) HalfLifeFor(nodeID string) time.Duration {
	if hl, ok := m.cfg.HalfLives[nodeID]; ok {
		return hl
	}
	return m.cfg.HalfLife
}

// LevelAt returns the record's level decayed to now:
// level * exp(-Δt/halfLife). A now before the last review yields the
// undecayed level.
func (m *Model) LevelAt(rec Record, now time.Time) float64 {
	if !rec.Seen() {
		return 0
	}
	dt := now.Sub(rec.LastReviewedAt)
	hl := m.HalfLifeFor(rec.NodeID)
	if dt <= 0 || hl <= 0 {
		return rec.Level
	}
	return rec.Level * math.Exp(-dt.Seconds()/hl.Seconds())
}

// Forgetting returns how much of the level recorded at the last review has
// decayed away by now.
func (m *Model) Forgetting(rec Record, now time.Time) float64 {
	return rec.Level - m.LevelAt(rec, now)
}

// IsMastered reports whether the decayed level meets the threshold.
func (m *Model) IsMastered(rec Record, now time.Time) bool {
	return rec.Seen() && m.LevelAt(rec, now) >= m.cfg.Threshold
}

// StateAt classifies the record at now. A node that was mastered at its
// last review and has since dropped below threshold is decayed; once it is
// attempted again without reaching threshold it is back to learning.
func (m *Model) StateAt(rec Record, now time.Time) State {
	switch {
	case !rec.Seen():
		return StateUnseen
	case m.IsMastered(rec, now):
		return StateMastered
	case rec.EverMastered && rec.Level >= m.cfg.Threshold:
		return StateDecayed
	default:
		return StateLearning
	}
}

// NeedsReview reports whether a once-mastered node is below threshold at
// now, whether it has only decayed or was re-attempted without success.
func (m *Model) NeedsReview(rec Record, now time.Time) bool {
	return rec.EverMastered && !m.IsMastered(rec, now)
}

// Apply folds one attempt into rec. The record is first decayed to the
// attempt time, then moved toward the score by LearningRate. A diagnostic
// event places the level at its score instead, never lowering it.
func (m *Model) Apply(rec Record, ev ledger.Event) Record {
	level := m.LevelAt(rec, ev.Timestamp)
	if ev.Category == ledger.CategoryDiagnostic {
		level = clamp01(max(level, ev.Score))
	} else {
		level = clamp01(level + m.cfg.LearningRate*(ev.Score-level))
	}

	out := rec
	out.NodeID = ev.NodeID
	out.Level = level
	out.AttemptCount++
	if ev.Timestamp.After(rec.LastReviewedAt) || !rec.Seen() {
		out.LastReviewedAt = ev.Timestamp
	}
	if level >= m.cfg.Threshold {
		out.EverMastered = true
	}
	return out
}

// Transition compares the node's state before and after an attempt at the
// attempt time and returns nil when it did not change.
func (m *Model) Transition(before, after Record, at time.Time) *StateTransition {
	from := m.StateAt(before, at)
	to := m.StateAt(after, at)
	if from == to {
		return nil
	}
	return &StateTransition{NodeID: after.NodeID, From: from, To: to, Trigger: triggerFor(from, to, before.EverMastered)}
}

// DecayTransition reports a state change caused purely by the passage of
// time between since and now.
func (m *Model) DecayTransition(rec Record, since, now time.Time) *StateTransition {
	from := m.StateAt(rec, since)
	to := m.StateAt(rec, now)
	if from == to {
		return nil
	}
	return &StateTransition{NodeID: rec.NodeID, From: from, To: to, Trigger: triggerFor(from, to, rec.EverMastered)}
}

// Replay folds events into a fresh snapshot.
func (m *Model) Replay(events iter.Seq2[ledger.Event, error]) (*Snapshot, error) {
	return m.ReplayFrom(NewSnapshot(), events)
}

// ReplayFrom folds into a copy of base the events whose sequence is past
// base.LastSequence. Events with sequence 0 (unsequenced) are always folded.
func (m *Model) ReplayFrom(base *Snapshot, events iter.Seq2[ledger.Event, error]) (*Snapshot, error) {
	snap := base.Clone()
	for ev, err := range events {
		if err != nil {
			return nil, fmt.Errorf("replay events: %w", err)
		}
		if ev.Sequence != 0 && ev.Sequence <= snap.LastSequence {
			continue
		}
		snap.Set(m.Apply(snap.Record(ev.NodeID), ev))
		if ev.Sequence > snap.LastSequence {
			snap.LastSequence = ev.Sequence
		}
	}
	return snap, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
