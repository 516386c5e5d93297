// Package eligibility decides which course nodes a learner may be offered
// at a given instant: new material whose prerequisites are all mastered, and
// previously mastered material that has decayed below threshold.
package eligibility

import (
	"slices"
	"time"

	"github.com/noobular/noobular/internal/coursegraph"
	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/mastery"
)

// Availability reports whether a node's content has been generated.
type Availability interface {
	Available(nodeID string) bool
}

// Candidate is a node annotated with what the selector needs to rank it.
type Candidate struct {
	NodeID     string
	Effort     float64
	Difficulty float64
	Level      float64 // decayed level at evaluation time
	Forgetting float64 // level lost since the last review
}

// Engine evaluates eligibility against a graph and a mastery model. It keeps
// no learner data between calls.
type Engine struct {
	graph *coursegraph.Graph
	model *mastery.Model
	avail Availability
}

// New returns an engine. When avail is nil a node is available iff its
// Content reference is non-empty.
func New(g *coursegraph.Graph, model *mastery.Model, avail Availability) *Engine {
	return &Engine{graph: g, model: model, avail: avail}
}

// Graph returns the course graph the engine evaluates.
func (e *Engine) Graph() *coursegraph.Graph {
	return e.graph
}

func (e *Engine) available(n coursegraph.Node) bool {
	if e.avail != nil {
		return e.avail.Available(n.ID)
	}
	return n.Content != ""
}

// Available reports whether id's content can be served.
func (e *Engine) Available(id string) bool {
	n, ok := e.graph.Node(id)
	return ok && e.available(n)
}

func (e *Engine) mastered(snap *mastery.Snapshot, id string, now time.Time) bool {
	return e.model.IsMastered(snap.Record(id), now)
}

// Unlocked reports whether every direct prerequisite of id is mastered at now.
// Roots are always unlocked. How a prerequisite was mastered does not matter,
// so a node mastered ahead of its own prerequisites still unlocks its
// dependents.
func (e *Engine) Unlocked(snap *mastery.Snapshot, now time.Time, id string) bool {
	for _, p := range e.graph.PrerequisitesOf(id) {
		if !e.mastered(snap, p, now) {
			return false
		}
	}
	return true
}

// EligibleSet returns, in topological order, the available nodes whose
// prerequisites are all mastered at now. Topics and exercises are both
// studyable. Mastered nodes are included; the selector filters them.
func (e *Engine) EligibleSet(snap *mastery.Snapshot, now time.Time) []string {
	var out []string
	for _, id := range e.graph.TopologicalOrder() {
		n, _ := e.graph.Node(id)
		if e.available(n) && e.Unlocked(snap, now, id) {
			out = append(out, id)
		}
	}
	return out
}

// ReviewSet returns the available nodes that were mastered at some point and
// are below threshold by now, sorted by id.
func (e *Engine) ReviewSet(snap *mastery.Snapshot, now time.Time) []string {
	var out []string
	for _, id := range snap.NodeIDs() {
		n, ok := e.graph.Node(id)
		if !ok || !e.available(n) {
			continue
		}
		if e.model.NeedsReview(snap.Record(id), now) {
			out = append(out, id)
		}
	}
	return out
}

// MissingPrerequisites returns every unmastered ancestor of id reachable
// through unmastered nodes, sorted.
func (e *Engine) MissingPrerequisites(snap *mastery.Snapshot, now time.Time, id string) []string {
	seen := make(map[string]bool)
	var out []string
	stack := e.graph.PrerequisitesOf(id)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[p] {
			continue
		}
		seen[p] = true
		if e.mastered(snap, p, now) {
			continue
		}
		out = append(out, p)
		stack = append(stack, e.graph.PrerequisitesOf(p)...)
	}
	slices.Sort(out)
	return out
}

// Candidates annotates ids for the selector. Unknown ids are skipped.
func (e *Engine) Candidates(snap *mastery.Snapshot, now time.Time, ids []string) []Candidate {
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		n, ok := e.graph.Node(id)
		if !ok {
			continue
		}
		rec := snap.Record(id)
		out = append(out, Candidate{
			NodeID:     id,
			Effort:     n.EstimatedEffort,
			Difficulty: n.Difficulty,
			Level:      e.model.LevelAt(rec, now),
			Forgetting: e.model.Forgetting(rec, now),
		})
	}
	return out
}

// NewMaterial returns the eligible candidates that are neither mastered nor
// due for review.
func (e *Engine) NewMaterial(snap *mastery.Snapshot, now time.Time) []Candidate {
	review := make(map[string]bool)
	for _, id := range e.ReviewSet(snap, now) {
		review[id] = true
	}
	var ids []string
	for _, id := range e.EligibleSet(snap, now) {
		if review[id] || e.mastered(snap, id, now) {
			continue
		}
		ids = append(ids, id)
	}
	return e.Candidates(snap, now, ids)
}

// Reviews returns the review set as candidates.
func (e *Engine) Reviews(snap *mastery.Snapshot, now time.Time) []Candidate {
	return e.Candidates(snap, now, e.ReviewSet(snap, now))
}

// Classify returns the category an attempt on id at now falls into, judged
// from the state before the attempt.
func (e *Engine) Classify(snap *mastery.Snapshot, now time.Time, id string) ledger.Category {
	if snap.Record(id).EverMastered {
		return ledger.CategoryReview
	}
	if !e.Unlocked(snap, now, id) {
		return ledger.CategoryAhead
	}
	return ledger.CategoryNew
}
