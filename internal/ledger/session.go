package ledger

import "time"

// Session groups attempts under an effort budget. Only its lifecycle is
// persisted; the effort spent is derived from the events carrying its ID.
type Session struct {
	ID        string
	LearnerID string
	Budget    float64
	StartedAt time.Time
	EndedAt   time.Time // zero while open
}

// Open reports whether the session has not been ended.
func (s Session) Open() bool {
	return s.EndedAt.IsZero()
}

// Spend is the effort recorded against a session.
type Spend struct {
	Total  float64
	Review float64
}

// Add accumulates ev into the spend.
func (s *Spend) Add(ev Event) {
	s.Total += ev.EffortSpent
	if ev.Category == CategoryReview {
		s.Review += ev.EffortSpent
	}
}
