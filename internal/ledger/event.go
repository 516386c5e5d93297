package ledger

import (
	"fmt"
	"time"
)

// Outcome is the checker's verdict on an attempt.
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomePartial Outcome = "partial"
)

// ParseOutcome converts a CLI/string value into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomePass, OutcomeFail, OutcomePartial:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q (want pass, fail or partial)", s)
}

// DefaultScore is the score implied by an outcome when none is given.
func (o Outcome) DefaultScore() float64 {
	switch o {
	case OutcomePass:
		return 1
	case OutcomePartial:
		return 0.5
	default:
		return 0
	}
}

// Category classifies an attempt relative to the learner's state just before it.
type Category string

const (
	CategoryNew    Category = "new"
	CategoryReview Category = "review"
	CategoryAhead  Category = "ahead" // prerequisites not yet mastered
	// CategoryDiagnostic marks a passed placement check; it credits the
	// node as mastered outright.
	CategoryDiagnostic Category = "diagnostic"
)

// Event is one immutable attempt record. Sequence is assigned by the ledger
// on append and orders events globally.
type Event struct {
	Sequence    int64
	LearnerID   string
	NodeID      string
	Timestamp   time.Time
	Outcome     Outcome
	Score       float64
	EffortSpent float64
	SessionID   string
	Category    Category
}
