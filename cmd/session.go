package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/tutor"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start or end a budgeted study session",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <course.yaml>",
	Short: "Open a session with an effort budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetFloat64("budget")

		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		s, err := rt.svc.StartSession(cmd.Context(), rt.learner(), budget)
		if errors.Is(err, tutor.ErrSessionOpen) {
			return fmt.Errorf("session %s (budget %.1f) is still open; end it first", s.ID, s.Budget)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s started with budget %.1f.\n", s.ID, s.Budget)
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <course.yaml>",
	Short: "Close the open session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		s, spend, err := rt.svc.EndSession(cmd.Context(), rt.learner())
		if errors.Is(err, tutor.ErrNoSession) {
			fmt.Fprintln(cmd.OutOrStdout(), "No open session.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended after %s: %.1f of %.1f effort spent (%.1f on review).\n",
			s.ID, s.EndedAt.Sub(s.StartedAt).Round(time.Second), spend.Total, s.Budget, spend.Review)
		return nil
	},
}

func init() {
	sessionStartCmd.Flags().Float64("budget", 10, "Effort budget for the session")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
}
