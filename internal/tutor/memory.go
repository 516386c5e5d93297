package tutor

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/mastery"
)

// MemoryRepository is an in-process Repository for tests and dry runs.
type MemoryRepository struct {
	*ledger.Memory

	mu       sync.Mutex
	mastery  map[string]*mastery.Snapshot
	sessions map[string]ledger.Session
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		Memory:   ledger.NewMemory(),
		mastery:  make(map[string]*mastery.Snapshot),
		sessions: make(map[string]ledger.Session),
	}
}

func (r *MemoryRepository) LatestSequence(ctx context.Context, learnerID string) (int64, error) {
	var latest int64
	for ev, err := range r.EventsFor(ctx, learnerID) {
		if err != nil {
			return 0, err
		}
		latest = max(latest, ev.Sequence)
	}
	return latest, nil
}

func (r *MemoryRepository) LoadMastery(_ context.Context, learnerID string) (*mastery.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mastery[learnerID].Clone(), nil
}

func (r *MemoryRepository) SaveMastery(_ context.Context, learnerID string, snap *mastery.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mastery[learnerID] = snap.Clone()
	return nil
}

func (r *MemoryRepository) CommitAttempt(ctx context.Context, ev ledger.Event, rec mastery.Record, cursor int64) (ledger.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.mastery[ev.LearnerID]
	if snap == nil {
		snap = mastery.NewSnapshot()
		r.mastery[ev.LearnerID] = snap
	}
	if snap.LastSequence != cursor {
		return ledger.Event{}, fmt.Errorf("%w: cursor at %d, record derived at %d", mastery.ErrStaleCache, snap.LastSequence, cursor)
	}
	stored, err := r.Append(ctx, ev)
	if err != nil {
		return ledger.Event{}, err
	}
	snap.Set(rec)
	snap.LastSequence = stored.Sequence
	return stored, nil
}

func (r *MemoryRepository) SaveSession(_ context.Context, s ledger.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *MemoryRepository) OpenSession(_ context.Context, learnerID string) (*ledger.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open *ledger.Session
	for _, s := range r.sessions {
		if s.LearnerID != learnerID || !s.Open() {
			continue
		}
		if open == nil || s.StartedAt.After(open.StartedAt) {
			open = &s
		}
	}
	return open, nil
}

func (r *MemoryRepository) SessionEvents(ctx context.Context, sessionID string) iter.Seq2[ledger.Event, error] {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()

	return func(yield func(ledger.Event, error) bool) {
		if !ok {
			return
		}
		for ev, err := range r.EventsFor(ctx, s.LearnerID) {
			if err != nil {
				yield(ledger.Event{}, err)
				return
			}
			if ev.SessionID != sessionID {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
