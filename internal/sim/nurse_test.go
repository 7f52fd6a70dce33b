package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNurseDecontaminatesAtFullCompliance(t *testing.T) {
	p := quietParams()
	p.Theta, p.High = 1, 1 // base rate 1

	n := newNurse(0, 0)
	n.state = ContaminatedResistant
	assert.True(t, n.Step(p, testRand()))
	assert.Equal(t, Uncontaminated, n.State())
}

func TestNurseWithZeroComplianceStaysContaminated(t *testing.T) {
	p := quietParams()
	p.Theta, p.High = 1, 1

	n := newNurse(0, 0)
	n.state = ContaminatedSusceptible
	n.compliance = 0
	r := testRand()
	for i := 0; i < 100; i++ {
		assert.False(t, n.Step(p, r))
	}
	assert.Equal(t, ContaminatedSusceptible, n.State())
}

func TestUncontaminatedNurseStepIsNoop(t *testing.T) {
	n := newNurse(3, 1)
	assert.False(t, n.Step(DefaultParams(), testRand()))
	assert.Equal(t, Uncontaminated, n.State())
	assert.Equal(t, 1.0, n.Compliance())
}

func TestUpdateComplianceClampsAtZero(t *testing.T) {
	n := newNurse(0, 0)
	n.UpdateCompliance(0, 0.05)
	assert.Equal(t, 1.0, n.Compliance())

	n.UpdateCompliance(10, 0.05)
	assert.InDelta(t, 0.5, n.Compliance(), 1e-12)

	n.UpdateCompliance(1e6, 0.05)
	assert.Equal(t, 0.0, n.Compliance())
}

func TestBoostComplianceClosesGap(t *testing.T) {
	n := newNurse(0, 0)
	n.compliance = 0.5
	n.BoostCompliance(0.5)
	assert.InDelta(t, 0.75, n.Compliance(), 1e-12)
}

func TestDecontaminationRate(t *testing.T) {
	assert.InDelta(t, 0.42, DefaultParams().DecontaminationRate(), 1e-12)
}
