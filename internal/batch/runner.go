// Package batch drives many independent simulation runs of one variant and
// collects their per-step metrics into a single table.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// progressEvery is how often completed runs are logged.
const progressEvery = 10

// Row is one step of one run.
type Row struct {
	RunID     uuid.UUID
	Iteration int // 0-based run index
	Seed      uint64
	Step      int // 1-based
	Metrics   sim.StepMetrics
}

// RunObserver is notified once per finished run. A StepObserver passed as
// Runner.Observer that also implements RunObserver receives both.
type RunObserver interface {
	RecordRun(v sim.Variant, result string, d time.Duration)
}

// Runner executes Runs independent runs of Steps steps each. Run i is seeded
// with SeedBase + i*SeedStep and owns its own model and random stream.
type Runner struct {
	Variant  sim.Variant
	Params   sim.Params
	Runs     int
	Steps    int
	SeedBase uint64
	SeedStep uint64
	Workers  int // defaults to GOMAXPROCS
	Logger   *log.Logger
	Observer sim.StepObserver
}

// Run executes every run and returns the rows in (iteration, step) order.
// Cancelling ctx stops all runs at the next step boundary.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Runs <= 0 {
		return nil, fmt.Errorf("batch: runs must be > 0, got %d", r.Runs)
	}
	if r.Steps <= 0 {
		return nil, fmt.Errorf("batch: steps must be > 0, got %d", r.Steps)
	}
	if err := r.Params.ValidateFor(r.Variant); err != nil {
		return nil, fmt.Errorf("batch: %s: %w", r.Variant, err)
	}

	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	perRun := make([][]Row, r.Runs)
	var done atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < r.Runs; i++ {
		g.Go(func() error {
			rows, err := r.runOne(ctx, i, logger)
			if err != nil {
				return err
			}
			perRun[i] = rows
			if n := done.Add(1); n%progressEvery == 0 {
				logger.Info("progress", "variant", r.Variant, "completed", n, "runs", r.Runs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %s: %w", r.Variant, err)
	}

	res := &Result{
		Variant: r.Variant,
		Runs:    r.Runs,
		Steps:   r.Steps,
		Rows:    make([]Row, 0, r.Runs*r.Steps),
	}
	for _, rows := range perRun {
		res.Rows = append(res.Rows, rows...)
	}
	logger.Info("batch finished", "variant", r.Variant, "runs", r.Runs, "steps", r.Steps,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (r *Runner) runOne(ctx context.Context, i int, logger *log.Logger) (rows []Row, err error) {
	seed := r.SeedBase + uint64(i)*r.SeedStep
	runID := uuid.New()
	began := time.Now()

	ro, _ := r.Observer.(RunObserver)
	defer func() {
		if ro == nil {
			return
		}
		result := "ok"
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result = "cancelled"
		case err != nil:
			result = "error"
		}
		ro.RecordRun(r.Variant, result, time.Since(began))
	}()

	opts := []sim.Option{sim.WithSeed(seed), sim.WithObserver(r.Observer)}
	if logger.GetLevel() <= log.DebugLevel {
		opts = append(opts, sim.WithLogger(logger.With("run", i)))
	}
	m, err := sim.New(r.Variant, r.Params, opts...)
	if err != nil {
		return nil, err
	}

	rows = make([]Row, 0, r.Steps)
	for s := 0; s < r.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.Step()
		sm := m.Metrics()
		rows = append(rows, Row{
			RunID:     runID,
			Iteration: i,
			Seed:      seed,
			Step:      sm.Step,
			Metrics:   sm,
		})
	}
	return rows, nil
}
