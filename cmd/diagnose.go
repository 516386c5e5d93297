package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <course.yaml> <node>...",
	Short: "Record a passed placement check for nodes the learner already knows",
	Long: `Record a passed placement check for each node. The nodes count as
mastered from now on, so their dependents unlock without working through
them first.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		results, err := rt.svc.Diagnose(cmd.Context(), rt.learner(), args[1:])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, res := range results {
			fmt.Fprintf(out, "#%d %s placed at %.3f\n", res.Event.Sequence, res.Event.NodeID, res.Record.Level)
		}
		fmt.Fprintf(out, "%d nodes placed\n", len(results))
		return nil
	},
}
