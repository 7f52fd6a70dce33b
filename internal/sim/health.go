package sim

import "fmt"

// HealthState is a patient's position in the colonization/infection state machine.
type HealthState int

const (
	Susceptible HealthState = iota
	ColonizedSusceptible
	ColonizedResistant
	InfectedSusceptible
	InfectedResistant
	Recovered // absorbing
)

// healthStates lists every valid state in reporting order.
var healthStates = []HealthState{
	Susceptible,
	ColonizedSusceptible,
	ColonizedResistant,
	InfectedSusceptible,
	InfectedResistant,
	Recovered,
}

func (h HealthState) String() string {
	switch h {
	case Susceptible:
		return "S"
	case ColonizedSusceptible:
		return "Cp_s"
	case ColonizedResistant:
		return "Cp_r"
	case InfectedSusceptible:
		return "Ip_s"
	case InfectedResistant:
		return "Ip_r"
	case Recovered:
		return "R"
	default:
		return "unknown"
	}
}

// Valid reports whether h is one of the declared states.
func (h HealthState) Valid() bool {
	return h >= Susceptible && h <= Recovered
}

// Active is true for every state except Recovered.
func (h HealthState) Active() bool {
	return h != Recovered
}

// Colonized is true for the asymptomatic carrier states.
func (h HealthState) Colonized() bool {
	return h == ColonizedSusceptible || h == ColonizedResistant
}

// Infected is true for the clinically symptomatic states.
func (h HealthState) Infected() bool {
	return h == InfectedSusceptible || h == InfectedResistant
}

// Resistant is true when the patient carries the resistant strain.
func (h HealthState) Resistant() bool {
	return h == ColonizedResistant || h == InfectedResistant
}

// Carrier is true when the patient can shed either strain.
func (h HealthState) Carrier() bool {
	return h.Colonized() || h.Infected()
}

// mustValid panics on a health value outside the declared set.
func (h HealthState) mustValid() {
	if !h.Valid() {
		panic(fmt.Sprintf("sim: invalid health state %d", int(h)))
	}
}

// Contamination is the strain a nurse is currently carrying on hands/equipment.
type Contamination int

const (
	Uncontaminated Contamination = iota
	ContaminatedSusceptible
	ContaminatedResistant
)

func (c Contamination) String() string {
	switch c {
	case Uncontaminated:
		return "U"
	case ContaminatedSusceptible:
		return "Cn_s"
	case ContaminatedResistant:
		return "Cn_r"
	default:
		return "unknown"
	}
}

// Contaminated is true for either strain.
func (c Contamination) Contaminated() bool {
	return c == ContaminatedSusceptible || c == ContaminatedResistant
}

func (c Contamination) mustValid() {
	if c < Uncontaminated || c > ContaminatedResistant {
		panic(fmt.Sprintf("sim: invalid contamination state %d", int(c)))
	}
}
