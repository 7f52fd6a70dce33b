package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChurnAdmissions(t *testing.T) {
	c := ChurnController{Rate: 10, Capacity: 400}
	cases := []struct {
		discharged, active, want int
	}{
		{0, 275, 10},
		{4, 275, 10},
		{0, 395, 5},
		{0, 400, 0},
		{3, 400, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Admissions(tc.discharged, tc.active),
			"discharged=%d active=%d", tc.discharged, tc.active)
	}
}

// At capacity and with no recovery possible the ward never admits.
func TestScenarioDNoAdmissionsAtCapacity(t *testing.T) {
	p := quietParams()
	p.InitialPatients = 20
	p.MaxPatientCapacity = 20
	p.AdmissionRatePerStep = 10

	for _, v := range AllVariants() {
		m, err := New(v, p, WithSeed(11))
		require.NoError(t, err)
		for i := 0; i < 60; i++ {
			m.Step()
			require.Equal(t, 0, m.Metrics().Admitted, "%s step %d", v, m.Tick())
		}
		assert.Len(t, m.Patients(), 20)
	}
}

func TestAdmissionsWaitForFirstRecovery(t *testing.T) {
	p := quietParams()
	p.InitialPatients = 20
	p.MaxPatientCapacity = 20
	p.AdmissionRatePerStep = 10
	p.LambdaCS = 1
	p.MuC = 0.02

	m, err := New(Ward, p, WithSeed(5))
	require.NoError(t, err)

	step := m.RunUntil(func(m *Model) bool { return m.Metrics().Admitted > 0 }, 2000)
	require.Positive(t, step)
	sm := m.Metrics()
	assert.Positive(t, sm.Discharged)
	assert.Equal(t, sm.Discharged, sm.Admitted)
	assert.Equal(t, 20, sm.CurrentPatients)
}
