package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
)

// ErrInvalidEvent is matched by every rejection from a Checked ledger.
var ErrInvalidEvent = errors.New("invalid event")

// InvalidEventError describes why an event was rejected.
type InvalidEventError struct {
	NodeID string
	Reason string
}

func (e *InvalidEventError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("invalid event: %s", e.Reason)
	}
	return fmt.Sprintf("invalid event for node %q: %s", e.NodeID, e.Reason)
}

func (e *InvalidEventError) Unwrap() error { return ErrInvalidEvent }

// NodeSet reports whether a node id exists. *coursegraph.Graph satisfies it.
type NodeSet interface {
	Has(id string) bool
}

// Checked wraps a Ledger and rejects malformed events before they reach it.
type Checked struct {
	inner Ledger
	nodes NodeSet
}

// NewChecked returns a validating decorator around inner.
func NewChecked(inner Ledger, nodes NodeSet) *Checked {
	return &Checked{inner: inner, nodes: nodes}
}

// Check validates ev without storing it.
func (c *Checked) Check(ev Event) error {
	return CheckEvent(ev, c.nodes)
}

func (c *Checked) Append(ctx context.Context, ev Event) (Event, error) {
	if err := c.Check(ev); err != nil {
		return Event{}, err
	}
	return c.inner.Append(ctx, ev)
}

func (c *Checked) EventsFor(ctx context.Context, learnerID string) iter.Seq2[Event, error] {
	return c.inner.EventsFor(ctx, learnerID)
}

// CheckEvent applies the ledger's admission rules to ev. A nil nodes skips
// the node existence check.
func CheckEvent(ev Event, nodes NodeSet) error {
	switch {
	case ev.LearnerID == "":
		return &InvalidEventError{NodeID: ev.NodeID, Reason: "empty learner id"}
	case ev.NodeID == "":
		return &InvalidEventError{Reason: "empty node id"}
	case nodes != nil && !nodes.Has(ev.NodeID):
		return &InvalidEventError{NodeID: ev.NodeID, Reason: "unknown node"}
	case ev.Timestamp.IsZero():
		return &InvalidEventError{NodeID: ev.NodeID, Reason: "missing timestamp"}
	}
	if _, err := ParseOutcome(string(ev.Outcome)); err != nil {
		return &InvalidEventError{NodeID: ev.NodeID, Reason: err.Error()}
	}
	if math.IsNaN(ev.Score) || ev.Score < 0 || ev.Score > 1 {
		return &InvalidEventError{NodeID: ev.NodeID, Reason: fmt.Sprintf("score %v outside [0,1]", ev.Score)}
	}
	if math.IsNaN(ev.EffortSpent) || math.IsInf(ev.EffortSpent, 0) || ev.EffortSpent < 0 {
		return &InvalidEventError{NodeID: ev.NodeID, Reason: fmt.Sprintf("effort %v is negative or not finite", ev.EffortSpent)}
	}
	return nil
}
