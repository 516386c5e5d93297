package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/coursedef"
	"github.com/noobular/noobular/internal/tutor"
)

var validateCmd = &cobra.Command{
	Use:   "validate <course.yaml>",
	Short: "Check a course document and report every problem found",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		def, err := coursedef.ParseFile(args[0])
		if err != nil {
			return err
		}
		issues := tutor.ValidateGraph(def)
		if len(issues) > 0 {
			for _, is := range issues {
				fmt.Fprintf(out, "  ✗ %s\n", is)
			}
			return fmt.Errorf("%s: %d issue(s)", args[0], len(issues))
		}

		g, err := def.Graph()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: %d nodes, %d edges, roots: %v\n",
			def.Title, g.Len(), len(g.Edges()), g.Roots())
		return nil
	},
}
