package mastery

// State is a node's position in the mastery lifecycle, derived from a Record
// at a point in time.
type State string

const (
	StateUnseen   State = "unseen"
	StateLearning State = "learning"
	StateMastered State = "mastered"
	StateDecayed  State = "decayed" // mastered at last review, has since fallen below threshold
)

// Transition triggers.
const (
	TriggerFirstAttempt = "first-attempt"
	TriggerMastered     = "mastered"
	TriggerRelearned    = "relearned"
	TriggerTimeDecay    = "time-decay"
	TriggerReviewFailed = "review-performance"
)

// StateTransition records a mastery state change for display and event logging.
type StateTransition struct {
	NodeID  string
	From    State
	To      State
	Trigger string
}

func (t StateTransition) String() string {
	return t.NodeID + ": " + string(t.From) + " -> " + string(t.To) + " (" + t.Trigger + ")"
}

// triggerFor names the cause of a change. wasMastered is the record's
// EverMastered flag before the change.
func triggerFor(from, to State, wasMastered bool) string {
	switch {
	case from == StateUnseen:
		return TriggerFirstAttempt
	case to == StateMastered && wasMastered:
		return TriggerRelearned
	case to == StateMastered:
		return TriggerMastered
	case from == StateMastered && to == StateDecayed:
		return TriggerTimeDecay
	default:
		return TriggerReviewFailed
	}
}
