package batch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

func smallParams() sim.Params {
	p := sim.DefaultParams()
	p.InitialPatients = 40
	p.MaxPatientCapacity = 60
	p.AdmissionRatePerStep = 3
	p.NumWards = 4
	return p
}

type countingObserver struct {
	mu    sync.Mutex
	steps int
	runs  map[string]int
}

func (c *countingObserver) ObserveStep(sim.Variant, sim.StepMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps++
}

func (c *countingObserver) RecordRun(_ sim.Variant, result string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs == nil {
		c.runs = map[string]int{}
	}
	c.runs[result]++
}

func TestRunProducesOrderedRows(t *testing.T) {
	obs := &countingObserver{}
	r := &Runner{
		Variant:  sim.AdmissionPatientAssignment,
		Params:   smallParams(),
		Runs:     6,
		Steps:    15,
		SeedBase: 42,
		SeedStep: 1,
		Workers:  3,
		Observer: obs,
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rows, 90)

	for i, row := range res.Rows {
		assert.Equal(t, i/15, row.Iteration)
		assert.Equal(t, i%15+1, row.Step)
		assert.Equal(t, uint64(42+i/15), row.Seed)
		assert.Equal(t, row.Step, row.Metrics.Step)
	}
	assert.NotEqual(t, res.Rows[0].RunID, res.Rows[15].RunID)
	assert.Equal(t, res.Rows[0].RunID, res.Rows[14].RunID)

	assert.Equal(t, 90, obs.steps)
	assert.Equal(t, map[string]int{"ok": 6}, obs.runs)
}

func TestRunMatchesSingleModel(t *testing.T) {
	r := &Runner{Variant: sim.Ward, Params: smallParams(), Runs: 3, Steps: 10, SeedBase: 7, SeedStep: 5}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	m, err := sim.New(sim.Ward, smallParams(), sim.WithSeed(17))
	require.NoError(t, err)
	for s := 0; s < 10; s++ {
		m.Step()
		assert.Equal(t, m.Metrics(), res.Rows[20+s].Metrics)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := (&Runner{Variant: sim.Ward, Params: smallParams(), Runs: 0, Steps: 5}).Run(context.Background())
	assert.Error(t, err)

	_, err = (&Runner{Variant: sim.Ward, Params: smallParams(), Runs: 1, Steps: 0}).Run(context.Background())
	assert.Error(t, err)

	p := smallParams()
	p.X = 3
	_, err = (&Runner{Variant: sim.Ward, Params: p, Runs: 1, Steps: 1}).Run(context.Background())
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obs := &countingObserver{}
	r := &Runner{Variant: sim.NoWard, Params: smallParams(), Runs: 4, Steps: 100, Workers: 2, Observer: obs}
	_, err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, obs.steps)
	assert.Zero(t, obs.runs["ok"])
}

func TestRunLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	r := &Runner{Variant: sim.NoWard, Params: smallParams(), Runs: 20, Steps: 2, Workers: 4, Logger: logger}
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("progress")))
	assert.Contains(t, buf.String(), "batch finished")
	assert.NotContains(t, buf.String(), "model constructed", "model logging is debug-only in batches")
}
