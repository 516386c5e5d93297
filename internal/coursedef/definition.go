// Package coursedef reads course definition documents and turns them into a
// validated course graph.
//
// Two YAML shapes are accepted. The flat shape lists nodes and edges
// directly. The lessons shape groups knowledge points (each with questions
// and named prerequisites) under lessons; every knowledge point becomes an
// exercise node.
package coursedef

import (
	"time"

	"github.com/noobular/noobular/internal/coursegraph"
)

// MaxKnowledgePoints caps the size of a lessons-shaped course.
const MaxKnowledgePoints = 1000

// Definition is a parsed course document.
type Definition struct {
	Title   string    `yaml:"title" validate:"required"`
	Version string    `yaml:"version,omitempty"`
	Nodes   []NodeDef `yaml:"nodes,omitempty" validate:"dive"`
	Edges   []EdgeDef `yaml:"edges,omitempty" validate:"dive"`
	Lessons []Lesson  `yaml:"lessons,omitempty" validate:"dive"`

	// Hash is the hex sha256 of the source document.
	Hash string `yaml:"-"`
}

// NodeDef is a node in the flat shape.
type NodeDef struct {
	ID         string  `yaml:"id" validate:"required"`
	Kind       string  `yaml:"kind,omitempty" validate:"omitempty,oneof=topic exercise"`
	Difficulty float64 `yaml:"difficulty,omitempty"`
	Effort     float64 `yaml:"effort,omitempty"`
	Content    string  `yaml:"content,omitempty"`
	Label      string  `yaml:"label,omitempty"`
	Lesson     string  `yaml:"lesson,omitempty"`
	// HalfLife overrides the global decay half-life, e.g. "72h".
	HalfLife string `yaml:"half_life,omitempty"`
}

// EdgeDef is a prerequisite edge in the flat shape: To requires From.
type EdgeDef struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// Lesson groups knowledge points.
type Lesson struct {
	Title           string           `yaml:"title" validate:"required"`
	KnowledgePoints []KnowledgePoint `yaml:"knowledge_points" validate:"dive"`
}

// KnowledgePoint is one exercise node in the lessons shape.
type KnowledgePoint struct {
	Name          string     `yaml:"name" validate:"required"`
	Description   string     `yaml:"description"`
	Prerequisites []string   `yaml:"prerequisites" validate:"dive,required"`
	Contents      []string   `yaml:"contents"`
	Questions     []Question `yaml:"questions" validate:"min=2,dive"`
	Difficulty    *float64   `yaml:"difficulty,omitempty"`
	Effort        *float64   `yaml:"effort,omitempty"`
}

// Question is a multiple choice question.
type Question struct {
	Prompt      string   `yaml:"prompt" validate:"required"`
	Choices     []Choice `yaml:"choices" validate:"min=2,dive"`
	Explanation string   `yaml:"explanation"`
}

// Choice is one answer option.
type Choice struct {
	Text    string `yaml:"text" validate:"required"`
	Correct bool   `yaml:"correct,omitempty"`
}

// KnowledgePointCount returns the number of knowledge points over all lessons.
func (d *Definition) KnowledgePointCount() int {
	n := 0
	for _, l := range d.Lessons {
		n += len(l.KnowledgePoints)
	}
	return n
}

// GraphInput converts the document into graph nodes and edges. Knowledge
// points default to an effort equal to their question count and a
// difficulty equal to their lesson's 1-based position.
func (d *Definition) GraphInput() ([]coursegraph.Node, []coursegraph.Edge) {
	var nodes []coursegraph.Node
	var edges []coursegraph.Edge

	for _, nd := range d.Nodes {
		kind := coursegraph.Kind(nd.Kind)
		if kind == "" {
			kind = coursegraph.KindExercise
		}
		nodes = append(nodes, coursegraph.Node{
			ID:              nd.ID,
			Kind:            kind,
			Difficulty:      nd.Difficulty,
			EstimatedEffort: nd.Effort,
			Content:         nd.Content,
			Label:           nd.Label,
			Lesson:          nd.Lesson,
		})
	}
	for _, e := range d.Edges {
		edges = append(edges, coursegraph.Edge{From: e.From, To: e.To})
	}

	for li, l := range d.Lessons {
		for _, kp := range l.KnowledgePoints {
			difficulty := float64(li + 1)
			if kp.Difficulty != nil {
				difficulty = *kp.Difficulty
			}
			effort := float64(len(kp.Questions))
			if kp.Effort != nil {
				effort = *kp.Effort
			}
			nodes = append(nodes, coursegraph.Node{
				ID:              kp.Name,
				Kind:            coursegraph.KindExercise,
				Difficulty:      difficulty,
				EstimatedEffort: effort,
				Content:         l.Title + "/" + kp.Name,
				Lesson:          l.Title,
			})
			for _, p := range kp.Prerequisites {
				edges = append(edges, coursegraph.Edge{From: p, To: kp.Name})
			}
		}
	}
	return nodes, edges
}

// Graph validates the document and loads it into a course graph. Any issue
// makes it fail with an error matching coursegraph.ErrGraphInvalid.
func (d *Definition) Graph() (*coursegraph.Graph, error) {
	if issues := Validate(d); len(issues) > 0 {
		return nil, &coursegraph.InvalidError{Issues: issues}
	}
	return coursegraph.Load(d.GraphInput())
}

// HalfLives returns the per-node half-life overrides. Unparseable values are
// skipped; Validate reports them.
func (d *Definition) HalfLives() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, nd := range d.Nodes {
		if nd.HalfLife == "" {
			continue
		}
		if hl, err := time.ParseDuration(nd.HalfLife); err == nil && hl > 0 {
			out[nd.ID] = hl
		}
	}
	return out
}
