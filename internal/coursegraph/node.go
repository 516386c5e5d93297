package coursegraph

// Kind distinguishes topic nodes from practicable exercise nodes.
type Kind string

const (
	KindTopic    Kind = "topic"
	KindExercise Kind = "exercise"
)

// Valid reports whether k is a known node kind.
func (k Kind) Valid() bool {
	return k == KindTopic || k == KindExercise
}

// Node is a single topic or exercise in the course graph.
type Node struct {
	ID              string
	Kind            Kind
	Difficulty      float64
	EstimatedEffort float64

	// Content is an opaque reference owned by the content store.
	// Empty means the content has not been generated yet.
	Content string

	// Label and Lesson are display-only.
	Label  string
	Lesson string
}

// DisplayName returns the label if set, otherwise the ID.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a prerequisite relation: To requires From.
type Edge struct {
	From string
	To   string
}
