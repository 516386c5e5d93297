package tutor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/ledger"
)

// Diagnose records a passed placement check for each node in passed,
// crediting it as mastered so its dependents unlock. Nodes are recorded in
// topological order, outside any session and without spending effort. If
// any node is invalid nothing is recorded.
func (s *Service) Diagnose(ctx context.Context, learnerID string, passed []string) ([]*Result, error) {
	now := s.now().UTC()
	want := make(map[string]bool, len(passed))
	for _, id := range passed {
		ev := diagnosticEvent(learnerID, id, now)
		if err := ledger.CheckEvent(ev, s.graph); err != nil {
			s.metrics.RejectedEvents.Inc()
			s.log.Warn("diagnostic rejected",
				zap.String("learner", learnerID),
				zap.String("node", id),
				zap.Error(err))
			return nil, err
		}
		want[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Result
	for _, id := range s.graph.TopologicalOrder() {
		if !want[id] {
			continue
		}
		res, err := s.commit(ctx, diagnosticEvent(learnerID, id, now), false)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	s.log.Info("diagnostic recorded", zap.String("learner", learnerID), zap.Int("nodes", len(out)))
	return out, nil
}

func diagnosticEvent(learnerID, nodeID string, at time.Time) ledger.Event {
	return ledger.Event{
		LearnerID: learnerID,
		NodeID:    nodeID,
		Timestamp: at,
		Outcome:   ledger.OutcomePass,
		Score:     1,
		Category:  ledger.CategoryDiagnostic,
	}
}
