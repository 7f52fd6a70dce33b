package sim

import "math/rand/v2"

// AdmissionPipeline controls where new patients enter and whether they are
// later triaged out of a holding ward.
type AdmissionPipeline interface {
	// EntryWard returns the ward a new admission is placed in.
	EntryWard(r *rand.Rand) int
	// Triage routes every patient whose holding period has elapsed.
	// transfer is called after each ward change.
	Triage(patients []*Patient, r *rand.Rand, transfer func(*Patient)) []TriageEvent
	// Advance increments holding counters at the end of a step.
	Advance(patients []*Patient)
	// HighRiskWards lists wards whose nurses get the compliance boost.
	HighRiskWards() []int
}

// TriageEvent records one patient leaving the admission ward.
type TriageEvent struct {
	PatientID int
	From, To  int
	State     HealthState
	Cohorted  bool // sent to the resistant cohort ward
}

// DirectAdmission places patients straight into a ward of the topology.
type DirectAdmission struct {
	Topology WardTopology
}

func (d DirectAdmission) EntryWard(r *rand.Rand) int { return d.Topology.AdmitWard(r) }

func (DirectAdmission) Triage([]*Patient, *rand.Rand, func(*Patient)) []TriageEvent { return nil }

func (DirectAdmission) Advance([]*Patient) {}

func (DirectAdmission) HighRiskWards() []int { return nil }

// TriageController holds new patients in the admission ward for a fixed
// period, then routes resistant carriers to the cohort ward and everyone
// else to a general ward.
type TriageController struct {
	AdmissionWard int
	CohortWard    int
	Period        int
	general       []int
}

// NewTriageController derives the general wards from the ward count.
func NewTriageController(p Params) *TriageController {
	tc := &TriageController{
		AdmissionWard: p.AdmissionWardID,
		CohortWard:    p.ResistantCohortWardID,
		Period:        p.AdmissionPeriod,
	}
	for w := 0; w < p.NumWards; w++ {
		if w != tc.AdmissionWard && w != tc.CohortWard {
			tc.general = append(tc.general, w)
		}
	}
	return tc
}

// GeneralWards returns the wards non-resistant patients may be routed to.
func (tc *TriageController) GeneralWards() []int {
	return append([]int(nil), tc.general...)
}

func (tc *TriageController) EntryWard(*rand.Rand) int { return tc.AdmissionWard }

func (tc *TriageController) HighRiskWards() []int {
	return []int{tc.AdmissionWard, tc.CohortWard}
}

// Triage moves every due patient out of the admission ward.
func (tc *TriageController) Triage(patients []*Patient, r *rand.Rand, transfer func(*Patient)) []TriageEvent {
	var events []TriageEvent
	for _, pt := range patients {
		if pt.ward != tc.AdmissionWard || pt.daysInAdmission < tc.Period {
			continue
		}
		ev := TriageEvent{PatientID: pt.id, From: pt.ward, State: pt.state}
		pt.ward = tc.Route(pt.state, r)
		ev.To = pt.ward
		ev.Cohorted = pt.ward == tc.CohortWard
		if transfer != nil {
			transfer(pt)
		}
		events = append(events, ev)
	}
	return events
}

// Route picks the destination ward for a patient in state st. With no
// general wards everyone goes to the cohort ward.
func (tc *TriageController) Route(st HealthState, r *rand.Rand) int {
	if st.Resistant() || len(tc.general) == 0 {
		return tc.CohortWard
	}
	return tc.general[r.IntN(len(tc.general))]
}

// Advance counts one more day for every patient still in the admission ward.
func (tc *TriageController) Advance(patients []*Patient) {
	for _, pt := range patients {
		if pt.ward == tc.AdmissionWard {
			pt.daysInAdmission++
		}
	}
}
