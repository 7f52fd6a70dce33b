package sim

// RunSteps advances the model n steps.
func (m *Model) RunSteps(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// RunUntil advances the model up to maxSteps, stopping early if predicate
// returns true. Returns the step at which the predicate was satisfied, or -1.
func (m *Model) RunUntil(predicate func(*Model) bool, maxSteps int) int {
	for i := 0; i < maxSteps; i++ {
		m.Step()
		if predicate(m) {
			return m.tick
		}
	}
	return -1
}

// ModelSnapshot is a lightweight copy of the population at one step.
type ModelSnapshot struct {
	Step     int
	Patients []PatientSnapshot
	Nurses   []NurseSnapshot
}

// PatientSnapshot is a copy of a patient's state.
type PatientSnapshot struct {
	ID              int
	Ward            int
	State           HealthState
	DaysInAdmission int
	NewlyInfected   bool
}

// NurseSnapshot is a copy of a nurse's state.
type NurseSnapshot struct {
	ID         int
	Ward       int
	State      Contamination
	Compliance float64
}

// Snapshot returns the current state of every agent.
func (m *Model) Snapshot() ModelSnapshot {
	snap := ModelSnapshot{
		Step:     m.tick,
		Patients: make([]PatientSnapshot, 0, len(m.patients)),
		Nurses:   make([]NurseSnapshot, 0, len(m.nurses)),
	}
	for _, pt := range m.patients {
		snap.Patients = append(snap.Patients, PatientSnapshot{
			ID:              pt.id,
			Ward:            pt.ward,
			State:           pt.state,
			DaysInAdmission: pt.daysInAdmission,
			NewlyInfected:   pt.newlyInfected,
		})
	}
	for _, n := range m.nurses {
		snap.Nurses = append(snap.Nurses, NurseSnapshot{
			ID:         n.id,
			Ward:       n.ward,
			State:      n.state,
			Compliance: n.compliance,
		})
	}
	return snap
}

// CountState returns how many snapshot patients are in state h.
func (s ModelSnapshot) CountState(h HealthState) int {
	n := 0
	for _, p := range s.Patients {
		if p.State == h {
			n++
		}
	}
	return n
}
