package coursegraph

import (
	"fmt"
	"io"

	"github.com/emicklei/dot"
)

// WriteDOT renders the graph in Graphviz DOT format, top to bottom, one
// rounded box per node labelled with its name and lesson.
func WriteDOT(w io.Writer, g *Graph, title string) error {
	if title == "" {
		title = "Course Graph"
	}
	_, err := fmt.Fprintf(w, "// %s\n%s", title, DOT(g))
	return err
}

// DOT builds the Graphviz digraph for g. Nodes are added in topological
// order.
func DOT(g *Graph) *dot.Graph {
	out := dot.NewGraph(dot.Directed)
	out.Attr("rankdir", "TB")
	out.NodeInitializer(func(n dot.Node) {
		n.Box()
		n.Attr("style", "rounded,filled")
		n.Attr("fillcolor", "lightblue")
	})

	for _, id := range g.TopologicalOrder() {
		n, _ := g.Node(id)
		label := n.DisplayName()
		if n.Lesson != "" {
			label += "\n(" + n.Lesson + ")"
		}
		out.Node(id).Label(label)
	}
	for _, e := range g.Edges() {
		out.Edge(out.Node(e.From), out.Node(e.To))
	}
	return out
}
