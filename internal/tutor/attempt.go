package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/mastery"
)

// Attempt is a submission from the UI layer.
type Attempt struct {
	LearnerID string
	NodeID    string
	Outcome   ledger.Outcome
	// Score overrides the outcome's default score when set.
	Score       *float64
	EffortSpent float64
	// Timestamp defaults to the service clock.
	Timestamp time.Time
}

// Result describes a recorded attempt.
type Result struct {
	Event      ledger.Event
	Before     mastery.Record
	Record     mastery.Record
	Transition *mastery.StateTransition
}

// SubmitAttempt validates and records an attempt, updating the node's
// mastery in the same transaction. Invalid attempts return an error
// matching ledger.ErrInvalidEvent and change nothing.
func (s *Service) SubmitAttempt(ctx context.Context, a Attempt) (*Result, error) {
	ev := ledger.Event{
		LearnerID:   a.LearnerID,
		NodeID:      a.NodeID,
		Timestamp:   a.Timestamp,
		Outcome:     a.Outcome,
		Score:       a.Outcome.DefaultScore(),
		EffortSpent: a.EffortSpent,
	}
	if a.Score != nil {
		ev.Score = *a.Score
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	ev.Timestamp = ev.Timestamp.UTC()

	if err := ledger.CheckEvent(ev, s.graph); err != nil {
		s.metrics.RejectedEvents.Inc()
		s.log.Warn("attempt rejected",
			zap.String("learner", a.LearnerID),
			zap.String("node", a.NodeID),
			zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, ev, true)
}

// maxCommitTries bounds how often an attempt is re-derived after another
// writer advanced the learner's cache underneath it.
const maxCommitTries = 3

// commit derives the node's new record from a fresh snapshot and stores it
// with ev. When classify is set the attempt's category and session are
// filled in from the learner's current state. A commit that loses a race
// with another process is re-derived against the updated cache.
func (s *Service) commit(ctx context.Context, ev ledger.Event, classify bool) (*Result, error) {
	for try := 1; ; try++ {
		res, err := s.commitOnce(ctx, ev, classify)
		if err == nil || !errors.Is(err, mastery.ErrStaleCache) || try == maxCommitTries {
			return res, err
		}
		s.log.Info("mastery cache moved during attempt, retrying",
			zap.String("learner", ev.LearnerID),
			zap.Int("try", try),
			zap.Error(err))
	}
}

func (s *Service) commitOnce(ctx context.Context, ev ledger.Event, classify bool) (*Result, error) {
	snap, err := s.snapshot(ctx, ev.LearnerID)
	if err != nil {
		return nil, err
	}
	if classify {
		sess, err := s.repo.OpenSession(ctx, ev.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
		if sess != nil {
			ev.SessionID = sess.ID
		}
		ev.Category = s.engine.Classify(snap, ev.Timestamp, ev.NodeID)
	}

	before := snap.Record(ev.NodeID)
	after := s.model.Apply(before, ev)

	stored, err := s.repo.CommitAttempt(ctx, ev, after, snap.LastSequence)
	if err != nil {
		return nil, fmt.Errorf("commit attempt: %w", err)
	}

	if tr := s.model.DecayTransition(before, before.LastReviewedAt, ev.Timestamp); tr != nil {
		s.metrics.Transitions.WithLabelValues(tr.Trigger).Inc()
		s.log.Info("mastery decayed before attempt",
			zap.String("learner", ev.LearnerID),
			zap.Stringer("transition", tr))
	}
	res := &Result{
		Event:      stored,
		Before:     before,
		Record:     after,
		Transition: s.model.Transition(before, after, ev.Timestamp),
	}
	s.metrics.Attempts.WithLabelValues(string(ev.Category)).Inc()
	if res.Transition != nil {
		s.metrics.Transitions.WithLabelValues(res.Transition.Trigger).Inc()
		s.log.Info("mastery transition",
			zap.String("learner", ev.LearnerID),
			zap.Stringer("transition", res.Transition))
	}
	s.log.Debug("attempt recorded",
		zap.Int64("sequence", stored.Sequence),
		zap.String("node", ev.NodeID),
		zap.String("category", string(ev.Category)),
		zap.Float64("level", after.Level))
	return res, nil
}
