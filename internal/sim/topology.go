package sim

import (
	"fmt"
	"math/rand/v2"
)

// HospitalWide is the scope ward id that includes every ward.
const HospitalWide = -1

// Scope is the unit over which interactions are resolved: one ward, or the
// whole hospital.
type Scope struct {
	Ward int
}

// Includes reports whether an agent in ward belongs to the scope.
func (s Scope) Includes(ward int) bool {
	return s.Ward == HospitalWide || s.Ward == ward
}

func (s Scope) String() string {
	if s.Ward == HospitalWide {
		return "hospital"
	}
	return fmt.Sprintf("ward-%d", s.Ward)
}

// WardTopology maps patients and nurses onto wards. A topology with zero
// wards is unstructured: every agent sits in ward 0 and the only scope is
// hospital-wide.
type WardTopology struct {
	wards int
}

// NewHospitalTopology returns the unstructured topology.
func NewHospitalTopology() WardTopology {
	return WardTopology{}
}

// NewWardTopology returns a topology of n wards numbered 0..n-1.
func NewWardTopology(n int) WardTopology {
	if n < 1 {
		panic(fmt.Sprintf("sim: ward topology needs at least one ward, got %d", n))
	}
	return WardTopology{wards: n}
}

// Structured is false for the hospital-wide topology.
func (t WardTopology) Structured() bool {
	return t.wards > 0
}

// WardCount returns the number of partition keys.
func (t WardTopology) WardCount() int {
	if t.wards == 0 {
		return 1
	}
	return t.wards
}

// Scopes lists the interaction scopes in ward order.
func (t WardTopology) Scopes() []Scope {
	if !t.Structured() {
		return []Scope{{Ward: HospitalWide}}
	}
	out := make([]Scope, t.wards)
	for i := range out {
		out[i] = Scope{Ward: i}
	}
	return out
}

// SeedWard places the i-th member of the initial population round-robin.
func (t WardTopology) SeedWard(i int) int {
	return i % t.WardCount()
}

// NurseWard places nurse i of total in contiguous blocks; the remainder goes
// to the lowest wards so block sizes differ by at most one.
func (t WardTopology) NurseWard(i, total int) int {
	w := t.WardCount()
	if total <= 0 || w == 1 {
		return 0
	}
	base, extra := total/w, total%w
	wide := (base + 1) * extra // nurses in the enlarged blocks
	if i < wide {
		return i / (base + 1)
	}
	if base == 0 {
		return extra - 1
	}
	return extra + (i-wide)/base
}

// AdmitWard draws a uniform ward for a direct admission. The unstructured
// topology consumes no randomness.
func (t WardTopology) AdmitWard(r *rand.Rand) int {
	if !t.Structured() {
		return 0
	}
	return r.IntN(t.wards)
}

// WorkloadFactor is active patients per nurse, 0 when there are no nurses.
func WorkloadFactor(activePatients, nurses int) float64 {
	if nurses <= 0 {
		return 0
	}
	return float64(activePatients) / float64(nurses)
}

// scopeMembers is one scope's share of the population for the current step.
type scopeMembers struct {
	scope  Scope
	active []*Patient
	nurses []*Nurse
}

// partition splits active patients and nurses by scope, preserving
// population order inside each scope.
func (t WardTopology) partition(patients []*Patient, nurses []*Nurse) []scopeMembers {
	scopes := t.Scopes()
	out := make([]scopeMembers, len(scopes))
	for i, s := range scopes {
		out[i].scope = s
	}
	index := func(ward int) int {
		if !t.Structured() {
			return 0
		}
		if ward < 0 || ward >= t.wards {
			panic(fmt.Sprintf("sim: agent references ward %d outside [0,%d)", ward, t.wards))
		}
		return ward
	}
	for _, pt := range patients {
		if !pt.state.Active() {
			continue
		}
		i := index(pt.ward)
		out[i].active = append(out[i].active, pt)
	}
	for _, n := range nurses {
		i := index(n.ward)
		out[i].nurses = append(out[i].nurses, n)
	}
	return out
}

// WardCensus is the population of one scope.
type WardCensus struct {
	Scope     Scope
	Active    int
	Recovered int
	Nurses    int
	Workload  float64
}

// Census counts every scope, including scopes the interaction engine skips.
func (t WardTopology) Census(patients []*Patient, nurses []*Nurse) []WardCensus {
	parts := t.partition(patients, nurses)
	out := make([]WardCensus, len(parts))
	for i, sm := range parts {
		out[i] = WardCensus{
			Scope:    sm.scope,
			Active:   len(sm.active),
			Nurses:   len(sm.nurses),
			Workload: WorkloadFactor(len(sm.active), len(sm.nurses)),
		}
	}
	for _, pt := range patients {
		if pt.state == Recovered {
			i := 0
			if t.Structured() {
				i = pt.ward
			}
			out[i].Recovered++
		}
	}
	return out
}

// AverageWorkload is the mean workload factor over all scopes. Wards without
// nurses contribute 0.
func (t WardTopology) AverageWorkload(patients []*Patient, nurses []*Nurse) float64 {
	census := t.Census(patients, nurses)
	if len(census) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range census {
		sum += c.Workload
	}
	return sum / float64(len(census))
}
