package sim

import "math/rand/v2"

// Nurse is a member of staff moving between patients. Nurses are created
// once at model construction and never change ward.
type Nurse struct {
	id         int
	ward       int
	state      Contamination
	compliance float64 // hand-hygiene compliance, 0-1
}

func newNurse(id, ward int) *Nurse {
	return &Nurse{id: id, ward: ward, compliance: 1.0}
}

func (n *Nurse) ID() int { return n.id }
func (n *Nurse) Ward() int { return n.ward }
func (n *Nurse) State() Contamination { return n.state }
func (n *Nurse) Compliance() float64 { return n.compliance }

// Step gives a contaminated nurse one chance to decontaminate, weighted by
// the compliance computed during the previous interaction round.
func (n *Nurse) Step(p Params, r *rand.Rand) (cleaned bool) {
	n.state.mustValid()
	if !n.state.Contaminated() {
		return false
	}
	if r.Float64() < p.DecontaminationRate()*n.compliance {
		n.state = Uncontaminated
		return true
	}
	return false
}

// UpdateCompliance degrades compliance linearly with workload, floored at 0.
func (n *Nurse) UpdateCompliance(workloadFactor, decreaseRate float64) {
	n.compliance = max(0.0, 1.0-workloadFactor*decreaseRate)
}

// BoostCompliance closes a fraction of the remaining gap to full compliance.
func (n *Nurse) BoostCompliance(boost float64) {
	n.compliance = min(1.0, n.compliance+(1-n.compliance)*boost)
}
