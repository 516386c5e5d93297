package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/tutor"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <course.yaml> <node>",
	Short: "Record an attempt on a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcomeVal, _ := cmd.Flags().GetString("outcome")
		outcome, err := ledger.ParseOutcome(outcomeVal)
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		a := tutor.Attempt{
			LearnerID: rt.learner(),
			NodeID:    args[1],
			Outcome:   outcome,
		}
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetFloat64("score")
			a.Score = &score
		}
		if cmd.Flags().Changed("effort") {
			a.EffortSpent, _ = cmd.Flags().GetFloat64("effort")
		} else if n, ok := rt.graph.Node(args[1]); ok {
			a.EffortSpent = n.EstimatedEffort
		}

		res, err := rt.svc.SubmitAttempt(cmd.Context(), a)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "#%d %s %s (%s, score %.2f, effort %.1f)\n",
			res.Event.Sequence, res.Event.NodeID, res.Event.Outcome,
			res.Event.Category, res.Event.Score, res.Event.EffortSpent)
		fmt.Fprintf(out, "mastery %.3f → %.3f\n", res.Before.Level, res.Record.Level)
		if res.Transition != nil {
			fmt.Fprintf(out, "%s\n", res.Transition)
		}
		return nil
	},
}

func init() {
	attemptCmd.Flags().String("outcome", "", "Attempt outcome: pass, fail or partial (required)")
	attemptCmd.Flags().Float64("score", 0, "Score in [0,1] (default from outcome)")
	attemptCmd.Flags().Float64("effort", 0, "Effort spent (default the node's estimated effort)")
	_ = attemptCmd.MarkFlagRequired("outcome")
}
