package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowSummaryAveragesAndTotals(t *testing.T) {
	r := NewSimReporter(3, false)
	assert.Nil(t, r.WindowSummary())
	assert.Nil(t, r.Latest())

	for step := 1; step <= 5; step++ {
		r.Collect(StepMetrics{
			Step:            step,
			CurrentPatients: 100 + step,
			InfectedR:       step,
			NewColonizedR:   1,
			Admitted:        2,
			AverageWorkload: 4,
		}, []WardCensus{{Scope: Scope{Ward: 0}}})
	}

	wr := r.WindowSummary()
	require.NotNil(t, wr)
	assert.Equal(t, 3, wr.FromStep)
	assert.Equal(t, 5, wr.ToStep)
	assert.Equal(t, 3, wr.SampleCount)
	assert.InDelta(t, 104.0, wr.AvgActive, 1e-9)
	assert.InDelta(t, 4.0, wr.AvgWorkload, 1e-9)
	assert.Equal(t, 3, wr.NewResistantStrain)
	assert.Equal(t, 6, wr.Admitted)
	assert.Equal(t, 5, wr.PeakInfectedR)
	assert.Empty(t, wr.Wards, "ward census is verbose-only")
	assert.Equal(t, 5, r.Latest().Metrics.Step)
}

func TestWindowReportFormat(t *testing.T) {
	var nilReport *WindowReport
	assert.Equal(t, "No data collected yet.\n", nilReport.Format())

	r := NewSimReporter(0, true)
	r.Collect(StepMetrics{Step: 1, CurrentPatients: 10}, []WardCensus{{Scope: Scope{Ward: 2}, Active: 10, Nurses: 2, Workload: 5}})
	out := r.WindowSummary().Format()
	assert.Contains(t, out, "S=1..1")
	assert.Contains(t, out, "ward-2")
	assert.Contains(t, out, "workload=5.00")
}
