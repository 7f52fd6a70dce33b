package sim

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietParams is the default table with every probability forced to 0 and
// admissions switched off.
func quietParams() Params {
	p := DefaultParams()
	p.Kappa, p.MS, p.DeltaM = 0, 0, 0
	p.PsiS, p.PsiR, p.Iota, p.SP, p.MuC = 0, 0, 0, 0, 0
	p.A, p.BNP, p.BPN, p.N, p.SB = 0, 0, 0, 0, 0
	p.Theta, p.X, p.Low, p.High = 0, 0, 0, 0
	p.LambdaCR, p.LambdaCS, p.LambdaIR, p.LambdaIS = 0, 0, 0, 0
	p.ProbResistanceEmergence = 0
	p.AdmissionRatePerStep = 0
	return p
}

func testRand() *rand.Rand {
	return newRand(42)
}

func TestInitialHealthFollowsLambda(t *testing.T) {
	cases := []struct {
		name string
		set  func(*Params)
		want HealthState
	}{
		{"colonized resistant", func(p *Params) { p.LambdaCR = 1 }, ColonizedResistant},
		{"colonized susceptible", func(p *Params) { p.LambdaCS = 1 }, ColonizedSusceptible},
		{"infected resistant", func(p *Params) { p.LambdaIR = 1 }, InfectedResistant},
		{"infected susceptible", func(p *Params) { p.LambdaIS = 1 }, InfectedSusceptible},
		{"remaining mass", func(*Params) {}, Susceptible},
	}
	r := testRand()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := quietParams()
			tc.set(&p)
			for i := 0; i < 50; i++ {
				require.Equal(t, tc.want, initialHealth(p, r))
			}
		})
	}
}

func TestPatientRecoveredIsAbsorbing(t *testing.T) {
	p := DefaultParams()
	p.Kappa, p.MS, p.PsiS, p.PsiR, p.Iota, p.MuC = 1, 1, 1, 1, 1, 1
	p.ProbResistanceEmergence = 1
	r := testRand()

	pt := &Patient{state: Recovered}
	for i := 0; i < 100; i++ {
		ev := pt.Step(p, r)
		require.Equal(t, Recovered, pt.State())
		require.False(t, ev.Recovered(), "already-recovered patient must not count as discharged")
	}
}

func TestPatientZeroProbabilitiesHoldState(t *testing.T) {
	p := quietParams()
	r := testRand()
	for _, h := range healthStates {
		pt := &Patient{state: h}
		for i := 0; i < 20; i++ {
			pt.Step(p, r)
		}
		assert.Equal(t, h, pt.State(), "state %s drifted", h)
	}
}

func TestPatientProgressesAndRecoversInOneStep(t *testing.T) {
	p := quietParams()
	p.Kappa, p.MS = 1, 1
	p.PsiS, p.Iota = 1, 1

	pt := &Patient{state: ColonizedSusceptible}
	ev := pt.Step(p, testRand())

	assert.True(t, ev.Progressed)
	assert.True(t, ev.Recovered())
	assert.Equal(t, Recovered, pt.State())
	assert.Equal(t, ColonizedSusceptible, pt.PreviousState())
}

func TestPatientResistantProgressionUsesUplift(t *testing.T) {
	p := quietParams()
	p.Kappa, p.MS, p.DeltaM = 1, 0.5, 1 // 0.5 * (1+1) = 1

	pt := &Patient{state: ColonizedResistant}
	ev := pt.Step(p, testRand())
	assert.True(t, ev.Progressed)
	assert.Equal(t, InfectedResistant, pt.State())
}

func TestPatientUntreatedPathwayClearsInfection(t *testing.T) {
	p := quietParams()
	p.PsiR = 1 // iota = 0: untreated pathway is certain, treated one impossible

	pt := &Patient{state: InfectedResistant}
	pt.Step(p, testRand())
	assert.Equal(t, Recovered, pt.State())
}

func TestPatientResistanceEmergence(t *testing.T) {
	p := quietParams()
	p.ProbResistanceEmergence = 1

	pt := &Patient{state: InfectedSusceptible}
	ev := pt.Step(p, testRand())
	assert.True(t, ev.Emerged)
	assert.Equal(t, InfectedResistant, pt.State())
	assert.Equal(t, InfectedSusceptible, ev.From)
}

func TestPatientStepClearsNewlyInfected(t *testing.T) {
	pt := &Patient{state: Susceptible}
	pt.infect(false, 0, testRand())
	require.True(t, pt.NewlyInfected())
	require.Equal(t, ColonizedSusceptible, pt.State())

	pt.Step(quietParams(), testRand())
	assert.False(t, pt.NewlyInfected())
}

func TestInfectChoosesStrainAndSeverity(t *testing.T) {
	r := testRand()
	cases := []struct {
		resistant bool
		x         float64
		want      HealthState
	}{
		{false, 0, ColonizedSusceptible},
		{false, 1, InfectedSusceptible},
		{true, 0, ColonizedResistant},
		{true, 1, InfectedResistant},
	}
	for _, tc := range cases {
		pt := &Patient{state: Susceptible}
		pt.infect(tc.resistant, tc.x, r)
		assert.Equal(t, tc.want, pt.State())
	}
}

func TestInvalidStatesPanic(t *testing.T) {
	pt := &Patient{state: HealthState(42)}
	assert.PanicsWithValue(t, "sim: invalid health state 42", func() {
		pt.Step(quietParams(), testRand())
	})

	n := &Nurse{state: Contamination(-1)}
	assert.Panics(t, func() { n.Step(quietParams(), testRand()) })
}

func TestHealthStateStrings(t *testing.T) {
	want := []string{"S", "Cp_s", "Cp_r", "Ip_s", "Ip_r", "R"}
	for i, h := range healthStates {
		assert.Equal(t, want[i], h.String())
	}
	assert.Equal(t, "unknown", HealthState(99).String())
	assert.Equal(t, "Cn_r", ContaminatedResistant.String())
}
