package coursegraph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrGraphInvalid is matched by every error returned from Load for a
// structurally broken course.
var ErrGraphInvalid = errors.New("graph invalid")

// IssueKind classifies a validation problem.
type IssueKind string

const (
	IssueDuplicate IssueKind = "duplicate"
	IssueDangling  IssueKind = "dangling"
	IssueSelfLoop  IssueKind = "self-loop"
	IssueCycle     IssueKind = "cycle"
	IssueAttribute IssueKind = "attribute"
	IssueNoRoot    IssueKind = "no-root"
	IssueDocument  IssueKind = "document"
)

// Issue is a single problem found while validating a course graph.
type Issue struct {
	Kind    IssueKind
	Node    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// InvalidError carries every issue found for a rejected course.
type InvalidError struct {
	Issues []Issue
}

func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.String()
	}
	return fmt.Sprintf("course graph validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

func (e *InvalidError) Is(target error) bool { return target == ErrGraphInvalid }

// Validate performs all structural checks on the given nodes and edges.
// It reports every problem it finds rather than stopping at the first.
func Validate(nodes []Node, edges []Edge) []Issue {
	var issues []Issue

	idSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			issues = append(issues, Issue{Kind: IssueAttribute, Message: "node with empty ID"})
			continue
		}
		if idSet[n.ID] {
			issues = append(issues, Issue{Kind: IssueDuplicate, Node: n.ID, Message: fmt.Sprintf("duplicate node ID: %q", n.ID)})
		}
		idSet[n.ID] = true
		issues = append(issues, attributeIssues(n)...)
	}

	// Dangling references and self loops. Only edges between known nodes
	// take part in cycle detection.
	prereqs := make(map[string][]string)
	seenEdge := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		switch {
		case !idSet[e.From]:
			issues = append(issues, Issue{Kind: IssueDangling, Node: e.To,
				Message: fmt.Sprintf("node %q references nonexistent prerequisite %q", e.To, e.From)})
		case !idSet[e.To]:
			issues = append(issues, Issue{Kind: IssueDangling, Node: e.From,
				Message: fmt.Sprintf("edge from %q points to nonexistent node %q", e.From, e.To)})
		case e.From == e.To:
			issues = append(issues, Issue{Kind: IssueSelfLoop, Node: e.From,
				Message: fmt.Sprintf("node %q lists itself as a prerequisite", e.From)})
		case !seenEdge[e]:
			seenEdge[e] = true
			prereqs[e.To] = append(prereqs[e.To], e.From)
		}
	}

	if cycle := findCycle(sortedIDs(idSet), prereqs); cycle != nil {
		issues = append(issues, Issue{Kind: IssueCycle, Node: cycle[0],
			Message: fmt.Sprintf("prerequisite cycle detected: %s", strings.Join(cycle, " -> "))})
	}

	if len(idSet) > 0 {
		hasRoot := false
		for id := range idSet {
			if len(prereqs[id]) == 0 {
				hasRoot = true
				break
			}
		}
		if !hasRoot {
			issues = append(issues, Issue{Kind: IssueNoRoot,
				Message: "no root nodes found (at least one node must have no prerequisites)"})
		}
	}

	return issues
}

func attributeIssues(n Node) []Issue {
	var issues []Issue
	if !n.Kind.Valid() {
		issues = append(issues, Issue{Kind: IssueAttribute, Node: n.ID,
			Message: fmt.Sprintf("node %q: unknown kind %q", n.ID, n.Kind)})
	}
	if n.Difficulty < 0 || math.IsNaN(n.Difficulty) || math.IsInf(n.Difficulty, 0) {
		issues = append(issues, Issue{Kind: IssueAttribute, Node: n.ID,
			Message: fmt.Sprintf("node %q: difficulty must be a finite number >= 0, got %v", n.ID, n.Difficulty)})
	}
	if n.EstimatedEffort < 0 || math.IsNaN(n.EstimatedEffort) || math.IsInf(n.EstimatedEffort, 0) {
		issues = append(issues, Issue{Kind: IssueAttribute, Node: n.ID,
			Message: fmt.Sprintf("node %q: estimated effort must be a finite number >= 0, got %v", n.ID, n.EstimatedEffort)})
	}
	return issues
}

// findCycle runs a depth-first search along prerequisite edges and returns
// the first cycle found as a closed path (first element repeated at the end),
// or nil if the graph is acyclic. Traversal order is deterministic.
func findCycle(ids []string, prereqs map[string][]string) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(ids))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)

		next := append([]string(nil), prereqs[id]...)
		sort.Strings(next)
		for _, p := range next {
			switch color[p] {
			case grey:
				start := 0
				for i, s := range stack {
					if s == p {
						start = i
						break
					}
				}
				// Report the path in dependency direction (prerequisite first).
				cycle := make([]string, 0, len(stack)-start+1)
				for i := len(stack) - 1; i >= start; i-- {
					cycle = append(cycle, stack[i])
				}
				return append(cycle, cycle[0])
			case white:
				if c := visit(p); c != nil {
					return c
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if c := visit(id); c != nil {
				return c
			}
		}
	}
	return nil
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
