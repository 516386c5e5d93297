// Package tutor is the scheduler's external surface: attempt submission,
// next-item queries, sessions and status, over a persistent repository.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/coursegraph"
	"github.com/noobular/noobular/internal/eligibility"
	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/mastery"
	"github.com/noobular/noobular/internal/metrics"
	"github.com/noobular/noobular/internal/scheduler"
)

var (
	ErrSessionOpen   = errors.New("a session is already open")
	ErrNoSession     = errors.New("no open session")
	ErrInvalidBudget = errors.New("effort budget must be a finite non-negative number")
)

// Repository is the persistence the service needs. *store.CourseStore and
// *MemoryRepository implement it.
type Repository interface {
	ledger.Ledger

	// LatestSequence is the sequence of the learner's newest event, 0 if none.
	LatestSequence(ctx context.Context, learnerID string) (int64, error)
	LoadMastery(ctx context.Context, learnerID string) (*mastery.Snapshot, error)
	SaveMastery(ctx context.Context, learnerID string, snap *mastery.Snapshot) error
	// CommitAttempt appends ev and stores rec atomically. cursor is the
	// LastSequence of the snapshot rec was derived from; if the stored cache
	// has moved past it, nothing is written and the error wraps
	// mastery.ErrStaleCache.
	CommitAttempt(ctx context.Context, ev ledger.Event, rec mastery.Record, cursor int64) (ledger.Event, error)

	SaveSession(ctx context.Context, s ledger.Session) error
	OpenSession(ctx context.Context, learnerID string) (*ledger.Session, error)
	SessionEvents(ctx context.Context, sessionID string) iter.Seq2[ledger.Event, error]
}

// Service schedules one course for any number of learners, one call at a
// time.
type Service struct {
	graph    *coursegraph.Graph
	model    *mastery.Model
	engine   *eligibility.Engine
	selector *scheduler.Selector
	repo     Repository

	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
	avail   eligibility.Availability

	// Attempts and decisions are serialised so every decision sees the
	// writes that preceded it.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithAvailability makes content availability come from a (e.g. a
// content.Tracker) instead of the nodes' content references.
func WithAvailability(a eligibility.Availability) Option {
	return func(s *Service) { s.avail = a }
}

// WithReviewQuota sets the selector's review share of the budget.
func WithReviewQuota(q float64) Option {
	return func(s *Service) { s.selector = scheduler.NewSelector(q) }
}

// New builds a service for graph g.
func New(g *coursegraph.Graph, model *mastery.Model, repo Repository, opts ...Option) *Service {
	s := &Service{
		graph:    g,
		model:    model,
		selector: scheduler.NewSelector(scheduler.DefaultReviewQuota),
		repo:     repo,
		log:      zap.NewNop(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.engine = eligibility.New(g, model, s.avail)
	return s
}

// Graph returns the course graph.
func (s *Service) Graph() *coursegraph.Graph { return s.graph }

// Metrics returns the service's collectors.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// snapshot returns the learner's mastery, replaying the ledger when the
// cache is behind it.
func (s *Service) snapshot(ctx context.Context, learnerID string) (*mastery.Snapshot, error) {
	snap, err := s.repo.LoadMastery(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load mastery: %w", err)
	}
	latest, err := s.repo.LatestSequence(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("latest sequence: %w", err)
	}
	if snap.LastSequence == latest {
		return snap, nil
	}
	s.log.Info("mastery cache stale, rebuilding",
		zap.String("learner", learnerID),
		zap.Int64("cached", snap.LastSequence),
		zap.Int64("latest", latest))
	return s.rebuild(ctx, learnerID)
}

func (s *Service) rebuild(ctx context.Context, learnerID string) (*mastery.Snapshot, error) {
	snap, err := s.model.Replay(s.repo.EventsFor(ctx, learnerID))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveMastery(ctx, learnerID, snap); err != nil {
		return nil, fmt.Errorf("save mastery: %w", err)
	}
	s.metrics.Rebuilds.Inc()
	return snap, nil
}

// Rebuild replays the learner's whole ledger and rewrites the cache.
func (s *Service) Rebuild(ctx context.Context, learnerID string) (*mastery.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild(ctx, learnerID)
}
