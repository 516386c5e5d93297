package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "noobular",
	Short: "Adaptive exercise scheduler for course graphs",
	Long: `Noobular tracks a learner's mastery over a course graph and picks the next
exercise: new material once its prerequisites are mastered, and review of
material that has decayed, under an effort budget.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides NOOBULAR_DB env var)")
	pf.String("learner", "", "Learner ID (default from config, else \"default\")")
	pf.String("config", "", "Path to YAML config file")
	pf.String("content-dir", "", "Directory with <node>.md files for nodes without a content reference")
	pf.BoolP("verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using the configured path (--db
// or the config file), then NOOBULAR_DB env var, then the default XDG path.
func resolveDBPath(configured string) (string, error) {
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
