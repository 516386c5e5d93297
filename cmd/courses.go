package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List course documents loaded into the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		courses, err := st.Courses(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(courses) == 0 {
			fmt.Fprintln(out, "No courses loaded.")
			return nil
		}

		// Header.
		fmt.Fprintf(out, "%-12s  %-19s  %s\n", "Hash", "Loaded", "Title")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, c := range courses {
			fmt.Fprintf(out, "%-12s  %-19s  %s\n",
				c.Hash[:min(12, len(c.Hash))],
				c.LoadedAt.Local().Format("2006-01-02 15:04:05"),
				c.Title)
		}
		return nil
	},
}
