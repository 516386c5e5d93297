// Package content tracks which course nodes have generated material and
// runs generation jobs in the background. Scheduling reads the tracker and
// never waits on a job.
package content

import (
	"maps"
	"slices"
	"sync"

	"github.com/noobular/noobular/internal/coursegraph"
)

// Status is the generation state of one node's content.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type entry struct {
	status Status
	ref    string
	err    string
}

// Tracker records per-node content status. It is safe for concurrent use
// and satisfies eligibility.Availability.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewTracker seeds a tracker from the graph: nodes with a content
// reference start ready, the rest pending.
func NewTracker(g *coursegraph.Graph) *Tracker {
	t := &Tracker{entries: make(map[string]entry, g.Len())}
	for _, n := range g.Nodes() {
		if n.Content != "" {
			t.entries[n.ID] = entry{status: StatusReady, ref: n.Content}
		} else {
			t.entries[n.ID] = entry{status: StatusPending}
		}
	}
	return t
}

// Available reports whether the node's content is ready.
func (t *Tracker) Available(nodeID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[nodeID].status == StatusReady
}

// Status returns the node's status and, when failed, the last error.
func (t *Tracker) Status(nodeID string) (Status, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[nodeID]
	if !ok {
		return "", ""
	}
	return e.status, e.err
}

// Ref returns the content reference of a ready node.
func (t *Tracker) Ref(nodeID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[nodeID].ref
}

// MarkReady records generated content for a node.
func (t *Tracker) MarkReady(nodeID, ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[nodeID] = entry{status: StatusReady, ref: ref}
}

// MarkFailed records a failed generation.
func (t *Tracker) MarkFailed(nodeID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.entries[nodeID] = entry{status: StatusFailed, err: msg}
}

// Pending returns the ids still waiting for content, sorted.
func (t *Tracker) Pending() []string {
	return t.with(StatusPending)
}

// Failed returns the ids whose generation failed, sorted.
func (t *Tracker) Failed() []string {
	return t.with(StatusFailed)
}

func (t *Tracker) with(s Status) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, id := range slices.Sorted(maps.Keys(t.entries)) {
		if t.entries[id].status == s {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the number of nodes in each status.
func (t *Tracker) Counts() map[Status]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Status]int, 3)
	for _, e := range t.entries {
		out[e.status]++
	}
	return out
}
