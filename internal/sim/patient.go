package sim

import "math/rand/v2"

// Patient is a single admitted patient.
type Patient struct {
	id    int
	ward  int
	state HealthState
	prev  HealthState // state at the start of the current step

	daysInAdmission int
	newlyInfected   bool // set by a transmission during the current step
	admittedAt      int  // step index of admission, 0 for the seeded population
}

// PatientEvent records what one patient's intrinsic transition did in a step.
type PatientEvent struct {
	PatientID  int
	From, To   HealthState
	Progressed bool // colonized -> infected
	Emerged    bool // infected susceptible -> infected resistant
}

// Recovered is true when the step moved the patient into Recovered.
func (e PatientEvent) Recovered() bool {
	return e.From.Active() && e.To == Recovered
}

func newPatient(id, ward int, p Params, r *rand.Rand) *Patient {
	st := initialHealth(p, r)
	return &Patient{id: id, ward: ward, state: st, prev: st}
}

// initialHealth draws from the configured categorical distribution; the
// remaining mass falls to Susceptible.
func initialHealth(p Params, r *rand.Rand) HealthState {
	u := r.Float64()
	switch {
	case u < p.LambdaCR:
		return ColonizedResistant
	case u < p.LambdaCR+p.LambdaCS:
		return ColonizedSusceptible
	case u < p.LambdaCR+p.LambdaCS+p.LambdaIR:
		return InfectedResistant
	case u < p.LambdaCR+p.LambdaCS+p.LambdaIR+p.LambdaIS:
		return InfectedSusceptible
	default:
		return Susceptible
	}
}

func (pt *Patient) ID() int { return pt.id }
func (pt *Patient) Ward() int { return pt.ward }
func (pt *Patient) State() HealthState { return pt.state }
func (pt *Patient) PreviousState() HealthState { return pt.prev }
func (pt *Patient) DaysInAdmission() int { return pt.daysInAdmission }
func (pt *Patient) NewlyInfected() bool { return pt.newlyInfected }
func (pt *Patient) AdmittedAt() int { return pt.admittedAt }

// Step advances the intrinsic state machine by one time unit. The checks run
// in a fixed order and each later check reads the state left by the earlier
// ones, so a patient can progress and recover in the same step.
func (pt *Patient) Step(p Params, r *rand.Rand) PatientEvent {
	pt.state.mustValid()
	pt.newlyInfected = false
	pt.prev = pt.state

	ev := PatientEvent{PatientID: pt.id, From: pt.state}
	if pt.state == Recovered {
		ev.To = Recovered
		return ev
	}

	// Progression.
	switch pt.state {
	case ColonizedSusceptible:
		if r.Float64() < p.Kappa*p.MS {
			pt.state = InfectedSusceptible
			ev.Progressed = true
		}
	case ColonizedResistant:
		if r.Float64() < p.Kappa*p.MS*(1+p.DeltaM) {
			pt.state = InfectedResistant
			ev.Progressed = true
		}
	}

	// Treated resolution.
	switch pt.state {
	case InfectedSusceptible:
		if r.Float64() < p.PsiS*p.Iota {
			pt.state = Recovered
		}
	case InfectedResistant:
		if r.Float64() < p.PsiR*p.Iota*(1-p.SP) {
			pt.state = Recovered
		}
	}

	// Natural clearance and the untreated pathway. At most one draw.
	switch pt.state {
	case ColonizedSusceptible, ColonizedResistant:
		if r.Float64() < p.MuC {
			pt.state = Recovered
		}
	case InfectedSusceptible:
		if r.Float64() < p.PsiS*(1-p.Iota) {
			pt.state = Recovered
		}
	case InfectedResistant:
		if r.Float64() < p.PsiR*(1-p.Iota*(1-p.SP)) {
			pt.state = Recovered
		}
	}

	if pt.state == InfectedSusceptible && r.Float64() < p.ProbResistanceEmergence {
		pt.state = InfectedResistant
		ev.Emerged = true
	}

	ev.To = pt.state
	return ev
}

// infect applies a successful transmission of the given strain to a
// Susceptible patient.
func (pt *Patient) infect(resistant bool, x float64, r *rand.Rand) {
	infected := r.Float64() < x
	switch {
	case resistant && infected:
		pt.state = InfectedResistant
	case resistant:
		pt.state = ColonizedResistant
	case infected:
		pt.state = InfectedSusceptible
	default:
		pt.state = ColonizedSusceptible
	}
	pt.newlyInfected = true
}
