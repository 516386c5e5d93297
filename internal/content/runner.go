package content

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Generator produces content for one node and returns its reference.
type Generator interface {
	Generate(ctx context.Context, nodeID string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, nodeID string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, nodeID string) (string, error) {
	return f(ctx, nodeID)
}

// Runner generates content for pending nodes with bounded concurrency.
type Runner struct {
	tracker *Tracker
	gen     Generator
	workers int
	timeout time.Duration
	log     *zap.Logger
}

// NewRunner returns a runner. workers < 1 means 1; timeout <= 0 disables
// the per-job deadline.
func NewRunner(t *Tracker, gen Generator, workers int, timeout time.Duration, log *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{tracker: t, gen: gen, workers: workers, timeout: timeout, log: log}
}

// Run generates every pending node and returns once all jobs finished or
// ctx is cancelled. A failed job marks its node failed and does not stop
// the others; only cancellation is returned as an error.
func (r *Runner) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, id := range r.tracker.Pending() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.runOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // jobs never return errors
	return ctx.Err()
}

// Start runs in the background and returns a channel closed on completion.
func (r *Runner) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
		close(done)
	}()
	return done
}

func (r *Runner) runOne(ctx context.Context, id string) {
	jobCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	ref, err := r.gen.Generate(jobCtx, id)
	if err == nil && ref == "" {
		err = fmt.Errorf("generator returned an empty reference")
	}
	if err != nil {
		r.tracker.MarkFailed(id, err)
		r.log.Warn("content generation failed", zap.String("node", id), zap.Error(err))
		return
	}
	r.tracker.MarkReady(id, ref)
	r.log.Debug("content ready", zap.String("node", id), zap.Duration("took", time.Since(start)))
}
