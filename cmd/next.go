package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next <course.yaml>",
	Short: "Show the next exercise to study",
	Long: `Show the next exercise to study. While a session is open its budget and
spend apply and --budget is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetFloat64("budget")

		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.svc.NextItem(cmd.Context(), rt.learner(), budget)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if d.Complete {
			fmt.Fprintf(out, "Session complete (%s), %.1f effort left.\n", d.Reason, d.BudgetRemaining)
			return nil
		}
		label := d.NodeID
		if n, ok := rt.graph.Node(d.NodeID); ok {
			label = n.DisplayName()
		}
		fmt.Fprintf(out, "%s\t%s\t%s\teffort %.1f of %.1f\n",
			d.NodeID, label, d.Category, d.Effort, d.BudgetRemaining)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <course.yaml>",
	Short: "Preview the exercises a session with the given budget would pick",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetFloat64("budget")

		rt, err := openRuntime(cmd, args[0])
		if err != nil {
			return err
		}
		defer rt.Close()

		picks, err := rt.svc.Plan(cmd.Context(), rt.learner(), budget)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(picks) == 0 {
			fmt.Fprintln(out, "Nothing to study.")
			return nil
		}

		// Header.
		fmt.Fprintf(out, "%3s  %-24s  %-7s  %6s  %6s\n", "#", "ID", "Slot", "Effort", "Level")
		fmt.Fprintln(out, strings.Repeat("─", 54))

		var total float64
		for i, p := range picks {
			total += p.Effort
			fmt.Fprintf(out, "%3d  %-24s  %-7s  %6.1f  %6.3f\n",
				i+1, p.NodeID, p.Category, p.Effort, p.Level)
		}
		fmt.Fprintf(out, "\n%d exercises, %.1f effort\n", len(picks), total)
		return nil
	},
}

func init() {
	nextCmd.Flags().Float64("budget", 10, "Effort budget when no session is open")
	planCmd.Flags().Float64("budget", 10, "Effort budget when no session is open")
}
