package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noobular/noobular/internal/config"
	"github.com/noobular/noobular/internal/content"
	"github.com/noobular/noobular/internal/coursedef"
	"github.com/noobular/noobular/internal/coursegraph"
	"github.com/noobular/noobular/internal/logging"
	"github.com/noobular/noobular/internal/mastery"
	"github.com/noobular/noobular/internal/store"
	"github.com/noobular/noobular/internal/tutor"
)

// runtime is everything a course command needs, opened from flags,
// config and the course file.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	def     *coursedef.Definition
	graph   *coursegraph.Graph
	tracker *content.Tracker
	svc     *tutor.Service

	// stopContent cancels background content lookup and waits for it.
	stopContent func()
}

// loadConfig resolves configuration for cmd. Flags set on the command line
// win over NOOBULAR_* env vars, which win over the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("content-dir"); dir != "" {
		cfg.Content.Dir = dir
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		JSON:    cfg.Log.JSON,
		Console: cmd.ErrOrStderr(),
	})
}

// openStore opens the configured database.
func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// openRuntime loads the course at coursePath and builds the tutor service
// over the learner database.
func openRuntime(cmd *cobra.Command, coursePath string) (*runtime, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	def, err := coursedef.ParseFile(coursePath)
	if err != nil {
		return nil, err
	}
	g, err := def.Graph()
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", coursePath, err)
	}

	mcfg := cfg.MasteryModel()
	mcfg.HalfLives = def.HalfLives()
	if err := mcfg.Validate(); err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, store: st, def: def, graph: g}

	added, err := st.RecordCourse(ctx, store.CourseRecord{Hash: def.Hash, Title: def.Title, LoadedAt: time.Now()})
	if err != nil {
		rt.Close()
		return nil, err
	}
	if added {
		log.Info("new course document", zap.String("title", def.Title), zap.String("hash", def.Hash[:12]))
	}

	opts := []tutor.Option{
		tutor.WithLogger(log.Named("tutor")),
		tutor.WithReviewQuota(cfg.Scheduler.ReviewQuota),
	}
	if cfg.Content.Dir != "" {
		rt.tracker = content.NewTracker(g)
		rt.stopContent = startContent(ctx, cfg, rt.tracker, log)
		opts = append(opts, tutor.WithAvailability(rt.tracker))
	}

	// A course's progress is keyed by its title, so edits to a document
	// keep the learner's history.
	rt.svc = tutor.New(g, mastery.NewModel(mcfg), st.Course(def.Title), opts...)
	return rt, nil
}

func newContentRunner(cfg *config.Config, t *content.Tracker, log *zap.Logger) *content.Runner {
	return content.NewRunner(t, dirGenerator(cfg.Content.Dir), cfg.Content.Workers, cfg.Content.Timeout, log.Named("content"))
}

// prepareContent resolves content for nodes without a reference by looking
// for <dir>/<node>.md, with the configured worker count and timeout, and
// waits for every lookup.
func prepareContent(ctx context.Context, cfg *config.Config, g *coursegraph.Graph, log *zap.Logger) (*content.Tracker, error) {
	t := content.NewTracker(g)
	if err := newContentRunner(cfg, t, log).Run(ctx); err != nil {
		return nil, fmt.Errorf("prepare content: %w", err)
	}
	return t, nil
}

// startContent resolves content into t in the background. Scheduling reads
// t as lookups land; nodes still pending are simply not offered yet. The
// returned func cancels the lookups and waits for the workers to exit.
func startContent(ctx context.Context, cfg *config.Config, t *content.Tracker, log *zap.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := newContentRunner(cfg, t, log).Start(ctx)
	return func() {
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("content lookup stopped", zap.Error(err))
		}
		counts := t.Counts()
		log.Debug("content status",
			zap.Int("ready", counts[content.StatusReady]),
			zap.Int("pending", counts[content.StatusPending]),
			zap.Int("failed", counts[content.StatusFailed]))
	}
}

func dirGenerator(dir string) content.GeneratorFunc {
	return func(ctx context.Context, nodeID string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := filepath.Join(dir, nodeID+".md")
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("no content file %s", p)
			}
			return "", err
		}
		if info.IsDir() || info.Size() == 0 {
			return "", fmt.Errorf("content file %s is empty", p)
		}
		return p, nil
	}
}

func (r *runtime) learner() string {
	return r.cfg.Learner
}

// Close stops background content lookup, flushes the logger, writing a
// metrics summary at debug level, and closes the store.
func (r *runtime) Close() {
	if r.stopContent != nil {
		r.stopContent()
	}
	if r.svc != nil {
		if sum, err := r.svc.Metrics().Summary(); err == nil && len(sum) > 0 {
			fields := make([]zap.Field, 0, len(sum))
			for name, v := range sum {
				fields = append(fields, zap.Float64(strings.TrimPrefix(name, "noobular_"), v))
			}
			r.log.Debug("metrics", fields...)
		}
	}
	if r.store != nil {
		r.store.Close()
	}
	_ = r.log.Sync()
}
