package sim

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// With every dynamic probability at 0 and lambda_cr = 1 the seeded
// population is entirely Cp_r and stays that way.
func TestScenarioAColonizedResistantPopulationIsStable(t *testing.T) {
	p := quietParams()
	p.InitialPatients = 10
	p.LambdaCR = 1

	m, err := New(NoWard, p, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, 10, m.Metrics().ColonizedR)
	require.Equal(t, 10, m.Metrics().CurrentPatients)

	m.Step()
	sm := m.Metrics()
	assert.Equal(t, 1, sm.Step)
	assert.Equal(t, 10, sm.ColonizedR)
	assert.Equal(t, 10, sm.CurrentPatients)
	assert.Zero(t, sm.NewColonizedR+sm.NewInfectedR+sm.ResistanceEmergence+sm.Discharged)
	assert.Equal(t, 10, m.Snapshot().CountState(ColonizedResistant))
}

func TestModelIsDeterministicPerSeed(t *testing.T) {
	for _, v := range AllVariants() {
		t.Run(v.String(), func(t *testing.T) {
			run := func(seed uint64) []StepMetrics {
				m, err := New(v, DefaultParams(), WithSeed(seed))
				require.NoError(t, err)
				var out []StepMetrics
				for i := 0; i < 40; i++ {
					m.Step()
					out = append(out, m.Metrics())
				}
				return out
			}
			a, b := run(9), run(9)
			assert.Equal(t, a, b)
			assert.NotEqual(t, a, run(10))
		})
	}
}

func TestAllVariantsRunWithinCapacity(t *testing.T) {
	p := DefaultParams()
	for _, v := range AllVariants() {
		m, err := New(v, p, WithSeed(2))
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			m.Step()
			sm := m.Metrics()
			require.LessOrEqual(t, sm.CurrentPatients, p.MaxPatientCapacity)
			require.GreaterOrEqual(t, sm.AverageWorkload, 0.0)
			require.Equal(t, sm.CurrentPatients,
				sm.Susceptible+sm.ColonizedS+sm.InfectedS+sm.ColonizedR+sm.InfectedR)
		}
		assert.Equal(t, 100, m.Tick())
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Kappa = 2
	p.InitialPatients = 500

	_, err := New(Ward, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Len(t, ce.Problems, 2)
	assert.Contains(t, err.Error(), "kappa")
	assert.Contains(t, err.Error(), "initial_patients")
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	_, err := New(Variant(17), DefaultParams())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestNoWardModelUsesSingleScope(t *testing.T) {
	m, err := New(NoWard, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, m.Census(), 1)
	assert.Len(t, m.Nurses(), 28)
	for _, n := range m.Nurses() {
		assert.Equal(t, 0, n.Ward())
	}
	assert.InDelta(t, 275.0/28.0, m.Metrics().AverageWorkload, 1e-9)
	assert.Nil(t, m.Assignments())
}

func TestPersistentModelAssignsEveryPatient(t *testing.T) {
	m, err := New(PatientAssignment, DefaultParams(), WithSeed(4))
	require.NoError(t, err)

	table := m.Assignments()
	require.NotNil(t, table)
	total := 0
	for _, ids := range table {
		total += len(ids)
	}
	assert.Equal(t, 275, total)
}

func TestAdmissionVariantsAdmitIntoAdmissionWard(t *testing.T) {
	p := DefaultParams()
	m, err := New(AdmissionWard, p, WithSeed(6))
	require.NoError(t, err)
	m.Step()
	require.Equal(t, 10, m.Metrics().Admitted)

	for _, pt := range m.Patients() {
		if pt.AdmittedAt() == 1 {
			assert.Equal(t, p.AdmissionWardID, pt.Ward())
			assert.Equal(t, 1, pt.DaysInAdmission())
		}
	}
}

func TestObserverSeesEveryStep(t *testing.T) {
	var steps []int
	obs := StepObserverFunc(func(v Variant, sm StepMetrics) {
		assert.Equal(t, Ward, v)
		steps = append(steps, sm.Step)
	})
	m, err := New(Ward, DefaultParams(), WithObserver(obs))
	require.NoError(t, err)
	m.RunSteps(5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
}

func TestSimLogMatchesMetrics(t *testing.T) {
	sl := NewSimLog(false)
	m, err := New(Ward, DefaultParams(), WithSeed(8), WithSimLog(sl))
	require.NoError(t, err)

	newCases, emergence, admitted := 0, 0, 0
	for i := 0; i < 60; i++ {
		m.Step()
		sm := m.Metrics()
		newCases += sm.NewColonizedS + sm.NewInfectedS + sm.NewResistant()
		emergence += sm.ResistanceEmergence
		admitted += sm.Admitted
	}
	assert.Equal(t, newCases, sl.Count(LogContact, "transmit"))
	assert.Equal(t, emergence, sl.Count(LogPatient, "emerge"))
	assert.Equal(t, admitted, sl.Count(LogChurn, "admit"))
	assert.Zero(t, sl.Count(LogNurse, "compliance"), "compliance is verbose-only")

	perWard := sl.WardCounts(LogContact, "transmit")
	total := 0
	for w, n := range perWard {
		assert.True(t, w >= 0 && w < DefaultParams().NumWards, "ward %d", w)
		total += n
	}
	assert.Equal(t, newCases, total)
}

func TestVerboseSimLogRecordsCompliance(t *testing.T) {
	sl := NewSimLog(true)
	m, err := New(Ward, DefaultParams(), WithSimLog(sl))
	require.NoError(t, err)
	m.Step()
	assert.Equal(t, len(m.Nurses()), sl.Count(LogNurse, "compliance"))
}

func TestReporterCollectsEveryStep(t *testing.T) {
	rep := NewSimReporter(10, true)
	m, err := New(AdmissionWard, DefaultParams(), WithReporter(rep))
	require.NoError(t, err)
	m.RunSteps(25)

	assert.Equal(t, 25, rep.Len())
	wr := rep.WindowSummary()
	require.NotNil(t, wr)
	assert.Equal(t, 16, wr.FromStep)
	assert.Equal(t, 25, wr.ToStep)
	assert.Len(t, wr.Wards, 10)
}

func TestLoggerRecordsConstruction(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	_, err := New(Ward, DefaultParams(), WithLogger(logger), WithSeed(99))
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.Contains(out, "model constructed"), out)
	assert.Contains(t, out, "seed=99")
}

func TestRunUntilStopsEarly(t *testing.T) {
	m, err := New(NoWard, DefaultParams())
	require.NoError(t, err)
	got := m.RunUntil(func(m *Model) bool { return m.Tick() == 3 }, 10)
	assert.Equal(t, 3, got)
	assert.Equal(t, -1, m.RunUntil(func(*Model) bool { return false }, 2))
	assert.Equal(t, 5, m.Tick())
}
