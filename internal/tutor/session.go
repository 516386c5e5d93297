package tutor

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/ledger"
)

// StartSession opens a session with an effort budget. Only one session per
// learner may be open.
func (s *Service) StartSession(ctx context.Context, learnerID string, budget float64) (ledger.Session, error) {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget < 0 {
		return ledger.Session{}, ErrInvalidBudget
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.repo.OpenSession(ctx, learnerID)
	if err != nil {
		return ledger.Session{}, err
	}
	if open != nil {
		return *open, ErrSessionOpen
	}

	sess := ledger.Session{
		ID:        s.newID(),
		LearnerID: learnerID,
		Budget:    budget,
		StartedAt: s.now().UTC(),
	}
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		return ledger.Session{}, err
	}
	s.log.Info("session started", zap.String("learner", learnerID), zap.String("session", sess.ID), zap.Float64("budget", budget))
	return sess, nil
}

// EndSession closes the learner's open session and returns it with the
// effort spent in it.
func (s *Service) EndSession(ctx context.Context, learnerID string) (ledger.Session, ledger.Spend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.repo.OpenSession(ctx, learnerID)
	if err != nil {
		return ledger.Session{}, ledger.Spend{}, err
	}
	if open == nil {
		return ledger.Session{}, ledger.Spend{}, ErrNoSession
	}
	spend, err := s.spend(ctx, open.ID)
	if err != nil {
		return ledger.Session{}, ledger.Spend{}, err
	}

	sess := *open
	sess.EndedAt = s.now().UTC()
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		return ledger.Session{}, ledger.Spend{}, err
	}
	s.log.Info("session ended",
		zap.String("learner", learnerID),
		zap.String("session", sess.ID),
		zap.Float64("spent", spend.Total))
	return sess, spend, nil
}

// CurrentSession returns the learner's open session, or nil.
func (s *Service) CurrentSession(ctx context.Context, learnerID string) (*ledger.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.OpenSession(ctx, learnerID)
}
