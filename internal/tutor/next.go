package tutor

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/scheduler"
)

// Reason explains a completed session.
type Reason string

const (
	// ReasonNoEligibleContent: nothing is eligible, either because
	// everything available is mastered or content is not generated yet.
	ReasonNoEligibleContent Reason = "no-eligible-content"
	// ReasonBudget: candidates exist but none fits the remaining budget.
	ReasonBudget Reason = "budget-exhausted"
)

// Decision is the answer to a next-item query. Complete with a Reason is
// the session-complete result.
type Decision struct {
	NodeID   string
	Category ledger.Category
	Effort   float64

	Complete bool
	Reason   Reason

	SessionID       string
	BudgetRemaining float64
}

// NextItem picks the learner's next exercise. When a session is open its
// budget and spend apply and effortBudget is ignored.
func (s *Service) NextItem(ctx context.Context, learnerID string, effortBudget float64) (Decision, error) {
	start := time.Now()
	defer func() { s.metrics.SelectionLatency.Observe(time.Since(start).Seconds()) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	in, sessionID, err := s.input(ctx, learnerID, effortBudget)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{SessionID: sessionID, BudgetRemaining: in.BudgetRemaining}
	pick, ok := s.selector.SelectNext(in)
	if !ok {
		d.Complete = true
		d.Reason = ReasonBudget
		if in.BudgetRemaining > 0 && len(in.NewMaterial) == 0 && len(in.Review) == 0 {
			d.Reason = ReasonNoEligibleContent
		}
		s.metrics.Decisions.WithLabelValues(string(d.Reason)).Inc()
		s.log.Debug("session complete", zap.String("learner", learnerID), zap.String("reason", string(d.Reason)))
		return d, nil
	}

	d.NodeID = pick.NodeID
	d.Category = pick.Category
	d.Effort = pick.Effort
	s.metrics.Decisions.WithLabelValues(string(pick.Category)).Inc()
	s.log.Debug("next item",
		zap.String("learner", learnerID),
		zap.String("node", pick.NodeID),
		zap.String("category", string(pick.Category)),
		zap.Float64("remaining", in.BudgetRemaining))
	return d, nil
}

// Plan previews the picks a session with the given budget would make if
// every pick were completed at its estimated effort.
func (s *Service) Plan(ctx context.Context, learnerID string, effortBudget float64) ([]scheduler.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, _, err := s.input(ctx, learnerID, effortBudget)
	if err != nil {
		return nil, err
	}
	return s.selector.Plan(in), nil
}

func (s *Service) input(ctx context.Context, learnerID string, effortBudget float64) (scheduler.Input, string, error) {
	if math.IsNaN(effortBudget) || math.IsInf(effortBudget, 0) || effortBudget < 0 {
		return scheduler.Input{}, "", ErrInvalidBudget
	}
	snap, err := s.snapshot(ctx, learnerID)
	if err != nil {
		return scheduler.Input{}, "", err
	}
	now := s.now()

	in := scheduler.Input{
		NewMaterial:     s.engine.NewMaterial(snap, now),
		Review:          s.engine.Reviews(snap, now),
		BudgetRemaining: effortBudget,
		BudgetTotal:     effortBudget,
	}

	sess, err := s.repo.OpenSession(ctx, learnerID)
	if err != nil {
		return scheduler.Input{}, "", fmt.Errorf("open session: %w", err)
	}
	if sess == nil {
		return in, "", nil
	}
	spend, err := s.spend(ctx, sess.ID)
	if err != nil {
		return scheduler.Input{}, "", err
	}
	in.BudgetTotal = sess.Budget
	in.BudgetRemaining = sess.Budget - spend.Total
	in.ReviewSpent = spend.Review
	return in, sess.ID, nil
}

func (s *Service) spend(ctx context.Context, sessionID string) (ledger.Spend, error) {
	var sp ledger.Spend
	for ev, err := range s.repo.SessionEvents(ctx, sessionID) {
		if err != nil {
			return ledger.Spend{}, fmt.Errorf("session events: %w", err)
		}
		sp.Add(ev)
	}
	return sp, nil
}
