package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/coursedef"
	"github.com/noobular/noobular/internal/coursegraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <course.yaml>",
	Short: "List the course graph in topological order, or render it as DOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dot, _ := cmd.Flags().GetBool("dot")
		out := cmd.OutOrStdout()

		def, err := coursedef.ParseFile(args[0])
		if err != nil {
			return err
		}
		g, err := def.Graph()
		if err != nil {
			return err
		}
		if dot {
			return coursegraph.WriteDOT(out, g, def.Title)
		}

		// Header.
		fmt.Fprintf(out, "%-24s  %-9s  %6s  %6s  %s\n",
			"ID", "Kind", "Diff", "Effort", "Prerequisites")
		fmt.Fprintln(out, strings.Repeat("─", 80))

		for _, id := range g.TopologicalOrder() {
			n, _ := g.Node(id)
			name := n.ID
			if len(name) > 24 {
				name = name[:21] + "..."
			}
			fmt.Fprintf(out, "%-24s  %-9s  %6.1f  %6.1f  %s\n",
				name, n.Kind, n.Difficulty, n.EstimatedEffort,
				strings.Join(g.PrerequisitesOf(id), ", "))
		}

		fmt.Fprintf(out, "\n%d nodes\n", g.Len())
		return nil
	},
}

func init() {
	graphCmd.Flags().Bool("dot", false, "Write Graphviz DOT instead of a table")
}
