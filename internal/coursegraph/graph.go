package coursegraph

import (
	"slices"
	"sort"
)

// Graph holds a validated course DAG with precomputed indices.
// Nodes are stored in a slice and referenced by string ID; a Graph is
// read-only once loaded.
type Graph struct {
	nodes      []Node
	index      map[string]int
	prereqs    map[string][]string
	dependents map[string][]string
	roots      []string
	topoOrder  []string
}

// Load validates nodes and edges and builds the graph.
// Returns an *InvalidError (matching ErrGraphInvalid) if any issue is found.
func Load(nodes []Node, edges []Edge) (*Graph, error) {
	if issues := Validate(nodes, edges); len(issues) > 0 {
		return nil, &InvalidError{Issues: issues}
	}
	return build(nodes, edges), nil
}

// build constructs the graph from validated input.
// It builds all indices including topological order (Kahn's algorithm).
func build(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:      slices.Clone(nodes),
		index:      make(map[string]int, len(nodes)),
		prereqs:    make(map[string][]string),
		dependents: make(map[string][]string),
	}
	for i := range g.nodes {
		g.index[g.nodes[i].ID] = i
	}

	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		g.prereqs[e.To] = append(g.prereqs[e.To], e.From)
		g.dependents[e.From] = append(g.dependents[e.From], e.To)
	}
	for id := range g.prereqs {
		sort.Strings(g.prereqs[id])
	}
	for id := range g.dependents {
		sort.Strings(g.dependents[id])
	}

	// Topological sort (Kahn's algorithm). The ready set is kept sorted so
	// that nodes without a relative order come out in ascending ID order.
	inDegree := make(map[string]int, len(g.nodes))
	var ready []string
	for _, n := range g.nodes {
		inDegree[n.ID] = len(g.prereqs[n.ID])
		if inDegree[n.ID] == 0 {
			ready = append(ready, n.ID)
			g.roots = append(g.roots, n.ID)
		}
	}
	sort.Strings(ready)
	sort.Strings(g.roots)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, depID := range g.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				pos := sort.SearchStrings(ready, depID)
				ready = slices.Insert(ready, pos, depID)
			}
		}
	}
	g.topoOrder = order

	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in load order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Edges returns every prerequisite edge, ordered by To then From.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.topoOrder {
		for _, p := range g.prereqs[id] {
			edges = append(edges, Edge{From: p, To: id})
		}
	}
	return edges
}

// PrerequisitesOf returns the direct prerequisites of id in ascending order.
// Transitive closure is left to the caller.
func (g *Graph) PrerequisitesOf(id string) []string {
	return slices.Clone(g.prereqs[id])
}

// DependentsOf returns the nodes that directly require id, in ascending order.
func (g *Graph) DependentsOf(id string) []string {
	return slices.Clone(g.dependents[id])
}

// Roots returns all nodes with no prerequisites.
func (g *Graph) Roots() []string {
	return slices.Clone(g.roots)
}

// TopologicalOrder returns every node ID exactly once with each prerequisite
// before its dependents. Ties are broken by ascending ID. Intended for
// diagnostics and visualisation, not for scheduling.
func (g *Graph) TopologicalOrder() []string {
	return slices.Clone(g.topoOrder)
}
