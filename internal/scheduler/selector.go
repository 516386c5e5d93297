// Package scheduler picks the next exercise for a session from the
// eligibility engine's candidates, interleaving review with new material
// under an effort budget.
package scheduler

import (
	"slices"
	"strings"

	"github.com/noobular/noobular/internal/eligibility"
	"github.com/noobular/noobular/internal/ledger"
)

// DefaultReviewQuota is the share of a session's budget reserved for review
// while new material competes for it.
const DefaultReviewQuota = 0.3

// Candidate is a node offered to the selector.
type Candidate = eligibility.Candidate

// Input is everything the selector needs for one decision.
type Input struct {
	NewMaterial []Candidate
	Review      []Candidate

	BudgetRemaining float64
	BudgetTotal     float64
	// ReviewSpent is the effort already spent on review in this session.
	ReviewSpent float64
}

// Pick is a selected candidate and the slot it fills.
type Pick struct {
	Candidate
	Category ledger.Category
}

// Selector implements the greedy review-then-new interleaving policy.
type Selector struct {
	ReviewQuota float64
}

// NewSelector returns a selector with the given review quota. A quota outside
// [0,1] falls back to DefaultReviewQuota.
func NewSelector(quota float64) *Selector {
	if quota < 0 || quota > 1 {
		quota = DefaultReviewQuota
	}
	return &Selector{ReviewQuota: quota}
}

// SelectNext returns the next pick, or false when nothing fits the remaining
// budget (the session is complete).
func (s *Selector) SelectNext(in Input) (Pick, bool) {
	if in.BudgetRemaining <= 0 {
		return Pick{}, false
	}
	reviews := rankReviews(in.Review)
	fresh := rankNew(in.NewMaterial, reviews)

	quota := s.ReviewQuota * in.BudgetTotal
	for _, c := range reviews {
		if c.Effort <= in.BudgetRemaining && in.ReviewSpent+c.Effort <= quota {
			return Pick{Candidate: c, Category: ledger.CategoryReview}, true
		}
	}
	for _, c := range fresh {
		if c.Effort <= in.BudgetRemaining {
			return Pick{Candidate: c, Category: ledger.CategoryNew}, true
		}
	}
	// No new material fits: hand the unused budget back to review.
	for _, c := range reviews {
		if c.Effort <= in.BudgetRemaining {
			return Pick{Candidate: c, Category: ledger.CategoryReview}, true
		}
	}
	return Pick{}, false
}

// Plan simulates successive picks, assuming each consumes its estimated
// effort and is not offered again within the session.
func (s *Selector) Plan(in Input) []Pick {
	in.NewMaterial = slices.Clone(in.NewMaterial)
	in.Review = slices.Clone(in.Review)

	var picks []Pick
	for {
		p, ok := s.SelectNext(in)
		if !ok {
			return picks
		}
		picks = append(picks, p)
		in.BudgetRemaining -= p.Effort
		if p.Category == ledger.CategoryReview {
			in.ReviewSpent += p.Effort
		}
		in.NewMaterial = without(in.NewMaterial, p.NodeID)
		in.Review = without(in.Review, p.NodeID)
	}
}

// rankReviews orders by steepest forgetting, then id.
func rankReviews(cands []Candidate) []Candidate {
	out := slices.Clone(cands)
	slices.SortStableFunc(out, func(a, b Candidate) int {
		if a.Forgetting != b.Forgetting {
			if a.Forgetting > b.Forgetting {
				return -1
			}
			return 1
		}
		return strings.Compare(a.NodeID, b.NodeID)
	})
	return out
}

// rankNew drops anything already in the review list and orders by
// difficulty, then id.
func rankNew(cands, reviews []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !slices.ContainsFunc(reviews, func(r Candidate) bool { return r.NodeID == c.NodeID }) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		if a.Difficulty != b.Difficulty {
			if a.Difficulty < b.Difficulty {
				return -1
			}
			return 1
		}
		return strings.Compare(a.NodeID, b.NodeID)
	})
	return out
}

func without(cands []Candidate, id string) []Candidate {
	return slices.DeleteFunc(cands, func(c Candidate) bool { return c.NodeID == id })
}
