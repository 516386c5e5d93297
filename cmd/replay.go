package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <course.yaml>",
	Short: "Rebuild the learner's mastery cache from the attempt ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		snap, err := rt.svc.Rebuild(cmd.Context(), rt.learner())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Replayed through event #%d: %d nodes with mastery records.\n",
			snap.LastSequence, len(snap.Records))
		return nil
	},
}
