package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admissionParams() Params {
	p := quietParams()
	p.InitialPatients = 10
	p.NumWards = 10
	p.AdmissionWardID = 0
	p.ResistantCohortWardID = 1
	p.AdmissionPeriod = 3
	return p
}

func findPatient(t *testing.T, m *Model, id int) *Patient {
	t.Helper()
	for _, pt := range m.Patients() {
		if pt.ID() == id {
			return pt
		}
	}
	t.Fatalf("patient %d not found", id)
	return nil
}

// A patient that starts in the admission ward stays there for three steps
// and is triaged at the start of the fourth.
func TestScenarioCTriageAfterAdmissionPeriod(t *testing.T) {
	for _, v := range []Variant{AdmissionWard, AdmissionPatientAssignment} {
		t.Run(v.String(), func(t *testing.T) {
			sl := NewSimLog(false)
			m, err := New(v, admissionParams(), WithSeed(7), WithSimLog(sl))
			require.NoError(t, err)

			pt := findPatient(t, m, 0)
			require.Equal(t, 0, pt.Ward())

			for step := 1; step <= 3; step++ {
				m.Step()
				require.Equal(t, 0, pt.Ward(), "step %d", step)
				require.Equal(t, step, pt.DaysInAdmission())
				require.Equal(t, 0, m.Metrics().Triaged)
			}

			m.Step()
			assert.NotEqual(t, 0, pt.Ward())
			assert.NotEqual(t, 1, pt.Ward(), "susceptible patient must not be cohorted")
			assert.Equal(t, 3, pt.DaysInAdmission(), "counter stops once triaged out")
			assert.Equal(t, 1, m.Metrics().Triaged)

			routes := sl.Filter(LogTriage, "route")
			require.NotEmpty(t, routes)
			e := routes[len(routes)-1]
			assert.Equal(t, "P0", e.Agent)
			assert.Equal(t, 4, e.Step)
			assert.Equal(t, pt.Ward(), e.Ward)
			assert.Contains(t, sl.FilterWard(pt.Ward()), e)
		})
	}
}

func TestResistantPatientsAreCohorted(t *testing.T) {
	p := admissionParams()
	p.LambdaCR = 1
	p.TargetPatientToNurseRatio = 1 // one nurse per ward
	m, err := New(AdmissionPatientAssignment, p, WithSeed(3))
	require.NoError(t, err)

	m.RunSteps(4)
	pt := findPatient(t, m, 0)
	assert.Equal(t, p.ResistantCohortWardID, pt.Ward())

	owner, ok := m.policy.(*PersistentAssignment).Owner(0)
	require.True(t, ok)
	assert.Equal(t, p.ResistantCohortWardID, m.nurses[owner].Ward())
}

func TestTriageFallsBackToCohortWithoutGeneralWards(t *testing.T) {
	p := admissionParams()
	p.NumWards = 2
	tc := NewTriageController(p)
	assert.Empty(t, tc.GeneralWards())
	assert.Equal(t, 1, tc.Route(Susceptible, testRand()))
}

func TestTriageGeneralWardsExcludeSpecialWards(t *testing.T) {
	p := admissionParams()
	p.NumWards = 5
	p.AdmissionWardID = 2
	p.ResistantCohortWardID = 4
	tc := NewTriageController(p)
	assert.Equal(t, []int{0, 1, 3}, tc.GeneralWards())
	assert.ElementsMatch(t, []int{2, 4}, tc.HighRiskWards())
	assert.Equal(t, 2, tc.EntryWard(testRand()))
}

func TestTriageHandlesRecoveredPatients(t *testing.T) {
	tc := NewTriageController(admissionParams())
	pts := []*Patient{
		{id: 0, ward: 0, state: Recovered, daysInAdmission: 3},
		{id: 1, ward: 0, state: Susceptible, daysInAdmission: 2},
		{id: 2, ward: 5, state: Susceptible, daysInAdmission: 9},
	}
	var moved []int
	events := tc.Triage(pts, testRand(), func(pt *Patient) { moved = append(moved, pt.id) })

	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].PatientID)
	assert.Equal(t, Recovered, events[0].State)
	assert.Equal(t, []int{0}, moved)
	assert.Equal(t, 0, pts[1].ward)
	assert.Equal(t, 5, pts[2].ward)
}

func TestAdvanceOnlyCountsAdmissionWard(t *testing.T) {
	tc := NewTriageController(admissionParams())
	pts := []*Patient{{ward: 0}, {ward: 3, daysInAdmission: 3}}
	tc.Advance(pts)
	tc.Advance(pts)
	assert.Equal(t, 2, pts[0].daysInAdmission)
	assert.Equal(t, 3, pts[1].daysInAdmission)
}

func TestDirectAdmissionHasNoTriage(t *testing.T) {
	da := DirectAdmission{Topology: NewWardTopology(4)}
	pts := []*Patient{{ward: 0, daysInAdmission: 10}}
	assert.Nil(t, da.Triage(pts, testRand(), nil))
	da.Advance(pts)
	assert.Equal(t, 10, pts[0].daysInAdmission)
	assert.Nil(t, da.HighRiskWards())

	w := da.EntryWard(testRand())
	assert.GreaterOrEqual(t, w, 0)
	assert.Less(t, w, 4)
}
