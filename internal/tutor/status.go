package tutor

import (
	"context"
	"slices"
	"time"

	"github.com/noobular/noobular/internal/coursedef"
	"github.com/noobular/noobular/internal/coursegraph"
	"github.com/noobular/noobular/internal/mastery"
)

// NodeStatus is one row of a learner's progress report.
type NodeStatus struct {
	NodeID         string
	Label          string
	State          mastery.State
	Level          float64 // decayed to the report time
	AttemptCount   int
	LastReviewedAt time.Time
	Eligible       bool
	Review         bool
	Available      bool
	// Missing lists the unmastered prerequisites blocking a locked node.
	Missing []string
}

// Report is a learner's progress across the whole course.
type Report struct {
	LearnerID string
	At        time.Time
	Nodes     []NodeStatus // topological order
	Mastered  int
	Decayed   int
	Eligible  int
}

// Status reports the learner's per-node mastery and eligibility.
func (s *Service) Status(ctx context.Context, learnerID string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	eligible := s.engine.EligibleSet(snap, now)
	review := s.engine.ReviewSet(snap, now)

	rep := &Report{LearnerID: learnerID, At: now}
	for _, id := range s.graph.TopologicalOrder() {
		n, _ := s.graph.Node(id)
		rec := snap.Record(id)
		ns := NodeStatus{
			NodeID:         id,
			Label:          n.DisplayName(),
			State:          s.model.StateAt(rec, now),
			Level:          s.model.LevelAt(rec, now),
			AttemptCount:   rec.AttemptCount,
			LastReviewedAt: rec.LastReviewedAt,
			Eligible:       slices.Contains(eligible, id),
			Review:         slices.Contains(review, id),
			Available:      s.engine.Available(id),
		}
		if !s.engine.Unlocked(snap, now, id) {
			ns.Missing = s.engine.MissingPrerequisites(snap, now, id)
		}
		switch ns.State {
		case mastery.StateMastered:
			rep.Mastered++
		case mastery.StateDecayed:
			rep.Decayed++
		}
		if ns.Eligible && ns.State != mastery.StateMastered {
			rep.Eligible++
		}
		rep.Nodes = append(rep.Nodes, ns)
	}
	return rep, nil
}

// ValidateGraph returns every structural and attribute problem in def. It
// does not need a service.
func ValidateGraph(def *coursedef.Definition) []coursegraph.Issue {
	return coursedef.Validate(def)
}
