package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/mastery"
	"github.com/noobular/noobular/internal/tutor"
)

var statusCmd = &cobra.Command{
	Use:   "status <course.yaml>",
	Short: "Show the learner's mastery across the course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		rep, err := rt.svc.Status(cmd.Context(), rt.learner())
		if err != nil {
			return err
		}
		printStatus(cmd, rep)

		if s, err := rt.svc.CurrentSession(cmd.Context(), rt.learner()); err == nil && s != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Open session %s, budget %.1f.\n", s.ID, s.Budget)
		}
		return nil
	},
}

func printStatus(cmd *cobra.Command, rep *tutor.Report) {
	out := cmd.OutOrStdout()

	// Header.
	fmt.Fprintf(out, "%-24s  %-9s  %6s  %8s  %-16s  %s\n",
		"ID", "State", "Level", "Attempts", "Last review", "Notes")
	fmt.Fprintln(out, strings.Repeat("─", 90))

	for _, n := range rep.Nodes {
		last := "-"
		if !n.LastReviewedAt.IsZero() {
			last = n.LastReviewedAt.Local().Format("2006-01-02 15:04")
		}
		var notes []string
		switch {
		case !n.Available:
			notes = append(notes, "no content")
		case n.Review:
			notes = append(notes, "review due")
		case n.Eligible && n.State != mastery.StateMastered:
			notes = append(notes, "ready")
		}
		if len(n.Missing) > 0 {
			notes = append(notes, "needs "+strings.Join(n.Missing, ", "))
		}
		fmt.Fprintf(out, "%-24s  %-9s  %6.3f  %8d  %-16s  %s\n",
			n.NodeID, n.State, n.Level, n.AttemptCount, last, strings.Join(notes, "; "))
	}

	fmt.Fprintf(out, "\n%d/%d mastered, %d decayed, %d ready\n",
		rep.Mastered, len(rep.Nodes), rep.Decayed, rep.Eligible)
}
