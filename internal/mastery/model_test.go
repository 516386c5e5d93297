package mastery

import (
	"context"
	"errors"
	"iter"
	"math"
	"testing"
	"time"

	"github.com/noobular/noobular/internal/ledger"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func pass(node string, at time.Time) ledger.Event {
	return ledger.Event{LearnerID: "ana", NodeID: node, Timestamp: at, Outcome: ledger.OutcomePass, Score: 1, EffortSpent: 1}
}

func fail(node string, at time.Time) ledger.Event {
	ev := pass(node, at)
	ev.Outcome = ledger.OutcomeFail
	ev.Score = 0
	return ev
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApply_EMASequence(t *testing.T) {
	m := NewModel(DefaultConfig())
	rec := Record{NodeID: "a"}

	want := []float64{0.4, 0.64, 0.784, 0.8704}
	for i, w := range want {
		rec = m.Apply(rec, pass("a", t0))
		if !almostEqual(rec.Level, w) {
			t.Fatalf("after pass %d: level = %v, want %v", i+1, rec.Level, w)
		}
	}
	if rec.AttemptCount != 4 {
		t.Errorf("AttemptCount = %d, want 4", rec.AttemptCount)
	}
	if !rec.EverMastered {
		t.Error("expected EverMastered after crossing threshold")
	}
	if !rec.LastReviewedAt.Equal(t0) {
		t.Errorf("LastReviewedAt = %v, want %v", rec.LastReviewedAt, t0)
	}
}

func TestApply_FailMovesTowardZero(t *testing.T) {
	m := NewModel(DefaultConfig())
	rec := Record{NodeID: "a", Level: 0.5, AttemptCount: 1, LastReviewedAt: t0}
	rec = m.Apply(rec, fail("a", t0))
	if !almostEqual(rec.Level, 0.3) {
		t.Errorf("level = %v, want 0.3", rec.Level)
	}
}

func TestApply_DecaysBeforeUpdate(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)
	rec := Record{NodeID: "a", Level: 1, AttemptCount: 1, LastReviewedAt: t0}

	later := t0.Add(cfg.HalfLife)
	rec = m.Apply(rec, fail("a", later))

	want := math.Exp(-1) * (1 - cfg.LearningRate)
	if !almostEqual(rec.Level, want) {
		t.Errorf("level = %v, want %v", rec.Level, want)
	}
	if !rec.LastReviewedAt.Equal(later) {
		t.Errorf("LastReviewedAt = %v, want %v", rec.LastReviewedAt, later)
	}
}

func TestApply_LevelStaysInUnitInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = 1
	m := NewModel(cfg)
	rec := m.Apply(Record{NodeID: "a"}, pass("a", t0))
	if rec.Level != 1 {
		t.Errorf("level = %v, want 1", rec.Level)
	}
	rec = m.Apply(rec, fail("a", t0))
	if rec.Level != 0 {
		t.Errorf("level = %v, want 0", rec.Level)
	}
}

func TestLevelAt_Decay(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)
	rec := Record{NodeID: "a", Level: 1, AttemptCount: 1, LastReviewedAt: t0}

	if got := m.LevelAt(rec, t0); got != 1 {
		t.Errorf("LevelAt(t0) = %v, want 1", got)
	}
	if got := m.LevelAt(rec, t0.Add(-time.Hour)); got != 1 {
		t.Errorf("LevelAt(before review) = %v, want 1", got)
	}
	if got := m.LevelAt(rec, t0.Add(cfg.HalfLife)); !almostEqual(got, math.Exp(-1)) {
		t.Errorf("LevelAt(t0+halfLife) = %v, want %v", got, math.Exp(-1))
	}
	if got := m.LevelAt(Record{NodeID: "x"}, t0); got != 0 {
		t.Errorf("LevelAt(unseen) = %v, want 0", got)
	}
}

func TestLevelAt_MonotonicallyNonIncreasing(t *testing.T) {
	m := NewModel(DefaultConfig())
	rec := Record{NodeID: "a", Level: 0.9, AttemptCount: 3, LastReviewedAt: t0}

	prev := m.LevelAt(rec, t0)
	for h := 1; h <= 24*60; h += 7 {
		cur := m.LevelAt(rec, t0.Add(time.Duration(h)*time.Hour))
		if cur > prev {
			t.Fatalf("level increased from %v to %v at +%dh", prev, cur, h)
		}
		prev = cur
	}
}

func TestLevelAt_PerNodeHalfLife(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HalfLives = map[string]time.Duration{"fast": 24 * time.Hour}
	m := NewModel(cfg)

	slow := Record{NodeID: "slow", Level: 1, AttemptCount: 1, LastReviewedAt: t0}
	fast := Record{NodeID: "fast", Level: 1, AttemptCount: 1, LastReviewedAt: t0}
	at := t0.Add(48 * time.Hour)

	if m.LevelAt(fast, at) >= m.LevelAt(slow, at) {
		t.Errorf("override half-life should decay faster: fast=%v slow=%v", m.LevelAt(fast, at), m.LevelAt(slow, at))
	}
	if got := m.HalfLifeFor("fast"); got != 24*time.Hour {
		t.Errorf("HalfLifeFor(fast) = %v", got)
	}
}

func TestStateAt(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)
	mastered := Record{NodeID: "a", Level: 0.9, AttemptCount: 4, LastReviewedAt: t0, EverMastered: true}

	tests := []struct {
		name string
		rec  Record
		now  time.Time
		want State
	}{
		{"unseen", Record{NodeID: "a"}, t0, StateUnseen},
		{"learning", Record{NodeID: "a", Level: 0.4, AttemptCount: 1, LastReviewedAt: t0}, t0, StateLearning},
		{"mastered", mastered, t0, StateMastered},
		{"decayed", mastered, t0.Add(cfg.HalfLife), StateDecayed},
		{"relearning", Record{NodeID: "a", Level: 0.7, AttemptCount: 5, LastReviewedAt: t0, EverMastered: true}, t0, StateLearning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.StateAt(tt.rec, tt.now); got != tt.want {
				t.Errorf("StateAt = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTransition(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)

	before := Record{NodeID: "a"}
	after := m.Apply(before, pass("a", t0))
	tr := m.Transition(before, after, t0)
	if tr == nil || tr.From != StateUnseen || tr.To != StateLearning || tr.Trigger != TriggerFirstAttempt {
		t.Fatalf("first attempt transition = %+v", tr)
	}

	before = Record{NodeID: "a", Level: 0.784, AttemptCount: 3, LastReviewedAt: t0}
	after = m.Apply(before, pass("a", t0))
	tr = m.Transition(before, after, t0)
	if tr == nil || tr.To != StateMastered || tr.Trigger != TriggerMastered {
		t.Fatalf("mastery transition = %+v", tr)
	}

	// Decayed, re-attempted, then relearned.
	later := t0.Add(cfg.HalfLife / 2)
	rusty := Record{NodeID: "a", Level: 0.9, AttemptCount: 5, LastReviewedAt: t0, EverMastered: true}
	if m.StateAt(rusty, later) != StateDecayed {
		t.Fatalf("expected decayed at %v", later)
	}
	retry := m.Apply(rusty, pass("a", later))
	tr = m.Transition(rusty, retry, later)
	if tr == nil || tr.From != StateDecayed || tr.To != StateLearning || tr.Trigger != TriggerReviewFailed {
		t.Fatalf("re-attempt transition = %+v", tr)
	}
	if !m.NeedsReview(retry, later) {
		t.Error("re-attempted node below threshold should still need review")
	}
	cur := retry
	for range 10 {
		next := m.Apply(cur, pass("a", later))
		if tr := m.Transition(cur, next, later); tr != nil {
			if tr.Trigger != TriggerRelearned || tr.From != StateLearning || tr.To != StateMastered {
				t.Fatalf("relearn transition = %+v", tr)
			}
			return
		}
		cur = next
	}
	t.Fatal("never relearned")
}

func TestTransition_FailedReviewOfMasteredNode(t *testing.T) {
	m := NewModel(DefaultConfig())
	before := Record{NodeID: "a", Level: 0.85, AttemptCount: 4, LastReviewedAt: t0, EverMastered: true}
	after := m.Apply(before, fail("a", t0))
	tr := m.Transition(before, after, t0)
	if tr == nil || tr.From != StateMastered || tr.To != StateLearning || tr.Trigger != TriggerReviewFailed {
		t.Fatalf("transition = %+v", tr)
	}
	if m.StateAt(after, t0.Add(30*24*time.Hour)) != StateLearning {
		t.Error("a failed review stays learning as it decays")
	}
}

func TestTransition_NoChange(t *testing.T) {
	m := NewModel(DefaultConfig())
	before := Record{NodeID: "a", Level: 0.4, AttemptCount: 1, LastReviewedAt: t0}
	after := m.Apply(before, fail("a", t0))
	if tr := m.Transition(before, after, t0); tr != nil {
		t.Errorf("expected no transition, got %+v", tr)
	}
}

func TestDecayTransition(t *testing.T) {
	cfg := DefaultConfig()
	m := NewModel(cfg)
	rec := Record{NodeID: "a", Level: 0.85, AttemptCount: 4, LastReviewedAt: t0, EverMastered: true}
	tr := m.DecayTransition(rec, t0, t0.Add(cfg.HalfLife))
	if tr == nil || tr.Trigger != TriggerTimeDecay || tr.From != StateMastered || tr.To != StateDecayed {
		t.Errorf("DecayTransition = %+v", tr)
	}
}

func eventSeq(events ...ledger.Event) iter.Seq2[ledger.Event, error] {
	return func(yield func(ledger.Event, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func TestReplay_Deterministic(t *testing.T) {
	mem := ledger.NewMemory()
	ctx := context.Background()
	for i, ev := range []ledger.Event{
		pass("a", t0),
		fail("b", t0.Add(time.Hour)),
		pass("a", t0.Add(26*time.Hour)),
		pass("b", t0.Add(50*time.Hour)),
	} {
		if _, err := mem.Append(ctx, ev); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	m := NewModel(DefaultConfig())
	first, err := m.Replay(mem.EventsFor(ctx, "ana"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	second, err := m.Replay(mem.EventsFor(ctx, "ana"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(first.Records) != 2 || first.LastSequence != 4 {
		t.Fatalf("snapshot = %+v", first)
	}
	for id, rec := range first.Records {
		if second.Records[id] != rec {
			t.Errorf("record %s differs between replays: %+v vs %+v", id, rec, second.Records[id])
		}
	}
}

func TestReplayFrom_SkipsFoldedEvents(t *testing.T) {
	m := NewModel(DefaultConfig())
	e1, e2 := pass("a", t0), pass("a", t0)
	e1.Sequence, e2.Sequence = 1, 2

	base, err := m.Replay(eventSeq(e1))
	if err != nil {
		t.Fatal(err)
	}
	full, err := m.Replay(eventSeq(e1, e2))
	if err != nil {
		t.Fatal(err)
	}
	inc, err := m.ReplayFrom(base, eventSeq(e1, e2))
	if err != nil {
		t.Fatal(err)
	}
	if inc.Record("a") != full.Record("a") {
		t.Errorf("incremental %+v != full %+v", inc.Record("a"), full.Record("a"))
	}
	if base.Record("a").AttemptCount != 1 {
		t.Error("ReplayFrom mutated its base snapshot")
	}
}

func TestReplay_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(ledger.Event, error) bool) {
		if !yield(pass("a", t0), nil) {
			return
		}
		yield(ledger.Event{}, boom)
	}
	_, err := NewModel(DefaultConfig()).Replay(seq)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.LearningRate = 0 },
		func(c *Config) { c.LearningRate = 1.5 },
		func(c *Config) { c.HalfLife = 0 },
		func(c *Config) { c.Threshold = 0 },
		func(c *Config) { c.HalfLives = map[string]time.Duration{"a": -time.Hour} },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestApply_DiagnosticPlacesLevel(t *testing.T) {
	m := NewModel(DefaultConfig())
	ev := pass("a", t0)
	ev.Category = ledger.CategoryDiagnostic
	ev.EffortSpent = 0

	rec := m.Apply(Record{NodeID: "a"}, ev)
	if rec.Level != 1 || !rec.EverMastered || rec.AttemptCount != 1 {
		t.Fatalf("placed record = %+v", rec)
	}
	if !m.IsMastered(rec, t0) {
		t.Error("diagnostic pass should master the node")
	}

	low := ev
	low.Score = 0.5
	high := Record{NodeID: "a", Level: 0.9, AttemptCount: 3, LastReviewedAt: t0, EverMastered: true}
	if got := m.Apply(high, low); got.Level != 0.9 {
		t.Errorf("diagnostic lowered level to %v", got.Level)
	}
}
