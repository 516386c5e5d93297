package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noobular/noobular/internal/content"
	"github.com/noobular/noobular/internal/coursedef"
)

var contentCmd = &cobra.Command{
	Use:   "content <course.yaml>",
	Short: "Report which nodes have content",
	Long: `Report which nodes have content. Nodes with a content reference are ready;
with --content-dir the rest are looked up as <dir>/<node>.md.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		def, err := coursedef.ParseFile(args[0])
		if err != nil {
			return err
		}
		g, err := def.Graph()
		if err != nil {
			return err
		}

		t := content.NewTracker(g)
		if cfg.Content.Dir != "" {
			if t, err = prepareContent(cmd.Context(), cfg, g, log); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		for _, id := range g.TopologicalOrder() {
			status, detail := t.Status(id)
			if status == content.StatusReady {
				detail = t.Ref(id)
			}
			fmt.Fprintf(out, "%-24s  %-7s  %s\n", id, status, detail)
		}
		counts := t.Counts()
		fmt.Fprintf(out, "\n%d ready, %d pending, %d failed\n",
			counts[content.StatusReady], counts[content.StatusPending], counts[content.StatusFailed])
		return nil
	},
}
