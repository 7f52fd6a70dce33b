package sim

import "math/rand/v2"

// ContactOutcome is the result of one nurse-patient contact.
type ContactOutcome struct {
	NurseID   int
	PatientID int
	Ward      int

	PickedUp    Contamination // strain the nurse acquired, Uncontaminated if none
	Transmitted bool
	Became      HealthState // patient state after the contact
}

// ScopeResult summarises one scope's interaction round.
type ScopeResult struct {
	Scope         Scope
	Workload      float64
	Contacts      int
	Pickups       int
	Transmissions int
	Skipped       bool // no active patients or no nurses
}

// InteractionEngine resolves all nurse-patient contacts of a step.
type InteractionEngine struct {
	params     Params
	topology   WardTopology
	compliance ComplianceModel
	policy     AssignmentPolicy
}

// NewInteractionEngine wires the three strategies the engine depends on.
func NewInteractionEngine(p Params, t WardTopology, cm ComplianceModel, policy AssignmentPolicy) *InteractionEngine {
	return &InteractionEngine{params: p, topology: t, compliance: cm, policy: policy}
}

// Resolve runs one interaction round per scope. onContact, when non-nil,
// sees every contact in resolution order.
func (e *InteractionEngine) Resolve(patients []*Patient, nurses []*Nurse, r *rand.Rand, onContact func(ContactOutcome)) []ScopeResult {
	parts := e.topology.partition(patients, nurses)
	results := make([]ScopeResult, 0, len(parts))
	for _, sm := range parts {
		res := ScopeResult{Scope: sm.scope}
		if len(sm.active) == 0 || len(sm.nurses) == 0 {
			res.Skipped = true
			results = append(results, res)
			continue
		}

		res.Workload = WorkloadFactor(len(sm.active), len(sm.nurses))
		for _, n := range sm.nurses {
			e.compliance.Apply(n, res.Workload)
		}

		r.Shuffle(len(sm.active), func(i, j int) {
			sm.active[i], sm.active[j] = sm.active[j], sm.active[i]
		})

		limit := min(e.params.NurseMaxInteractions, len(sm.active))
		for _, n := range sm.nurses {
			for _, pt := range e.policy.Contacts(n, sm.active, limit, r) {
				out := e.Contact(n, pt, r)
				res.Contacts++
				if out.PickedUp != Uncontaminated {
					res.Pickups++
				}
				if out.Transmitted {
					res.Transmissions++
				}
				if onContact != nil {
					onContact(out)
				}
			}
		}
		results = append(results, res)
	}
	return results
}

// Contact resolves pickup then transmission for a single pair, each against
// the state current at the moment of the contact.
func (e *InteractionEngine) Contact(n *Nurse, pt *Patient, r *rand.Rand) ContactOutcome {
	p := e.params
	n.state.mustValid()
	pt.state.mustValid()
	out := ContactOutcome{NurseID: n.id, PatientID: pt.id, Ward: pt.ward}

	if n.state == Uncontaminated && pt.state.Carrier() {
		mult := 1.0
		if pt.state.Colonized() {
			mult = p.N
		}
		prob := p.A * p.BPN * (1 - p.Theta) * mult * n.compliance
		strain := ContaminatedSusceptible
		if pt.state.Resistant() {
			prob *= 1 - p.SB
			strain = ContaminatedResistant
		}
		if r.Float64() < prob {
			n.state = strain
			out.PickedUp = strain
		}
	}

	if pt.state == Susceptible && n.state.Contaminated() {
		prob := p.A * p.BNP * (1 - p.Theta)
		resistant := n.state == ContaminatedResistant
		if resistant {
			prob *= 1 - p.SB
		}
		if r.Float64() < prob {
			pt.infect(resistant, p.X, r)
			out.Transmitted = true
		}
	}

	out.Became = pt.state
	return out
}
