package sim

// MetricColumns names the StepMetrics values in table order. The first
// twelve match the column names of the reference batch output.
var MetricColumns = []string{
	"Current_Patients",
	"Susceptible",
	"Colonized_S",
	"Infected_S",
	"Colonized_R",
	"Infected_R",
	"New_Colonized_S",
	"New_Infected_S",
	"New_Colonized_R",
	"New_Infected_R",
	"Resistance_Emergence",
	"Average_Nurse_Workload_Factor",
	"Recovered",
	"Discharged",
	"Admitted",
	"Triaged",
}

// ColumnIndex returns the position of name in MetricColumns, or -1.
func ColumnIndex(name string) int {
	for i, c := range MetricColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// StepMetrics is the aggregate state of a model after one step.
type StepMetrics struct {
	Step int

	CurrentPatients int // non-Recovered patients
	Susceptible     int
	ColonizedS      int
	InfectedS       int
	ColonizedR      int
	InfectedR       int

	NewColonizedS int
	NewInfectedS  int
	NewColonizedR int
	NewInfectedR  int

	ResistanceEmergence int
	AverageWorkload     float64

	Recovered  int // Recovered patients still held in the population
	Discharged int // active -> Recovered transitions this step
	Admitted   int
	Triaged    int
}

// Values returns the metrics in MetricColumns order.
func (sm StepMetrics) Values() []float64 {
	return []float64{
		float64(sm.CurrentPatients),
		float64(sm.Susceptible),
		float64(sm.ColonizedS),
		float64(sm.InfectedS),
		float64(sm.ColonizedR),
		float64(sm.InfectedR),
		float64(sm.NewColonizedS),
		float64(sm.NewInfectedS),
		float64(sm.NewColonizedR),
		float64(sm.NewInfectedR),
		float64(sm.ResistanceEmergence),
		sm.AverageWorkload,
		float64(sm.Recovered),
		float64(sm.Discharged),
		float64(sm.Admitted),
		float64(sm.Triaged),
	}
}

// NewResistant is the number of resistant-strain cases acquired this step.
func (sm StepMetrics) NewResistant() int {
	return sm.NewColonizedR + sm.NewInfectedR
}

// StepObserver receives the metrics of every completed step.
type StepObserver interface {
	ObserveStep(v Variant, m StepMetrics)
}

// StepObserverFunc adapts a function to StepObserver.
type StepObserverFunc func(Variant, StepMetrics)

func (f StepObserverFunc) ObserveStep(v Variant, m StepMetrics) { f(v, m) }

// stepEvents gathers the event records produced during one step.
type stepEvents struct {
	patients []PatientEvent
	contacts []ContactOutcome
	triage   []TriageEvent
	admitted int
}

// countStates tallies the current health of the population.
func countStates(patients []*Patient, sm *StepMetrics) {
	for _, pt := range patients {
		switch pt.state {
		case Susceptible:
			sm.Susceptible++
		case ColonizedSusceptible:
			sm.ColonizedS++
		case InfectedSusceptible:
			sm.InfectedS++
		case ColonizedResistant:
			sm.ColonizedR++
		case InfectedResistant:
			sm.InfectedR++
		case Recovered:
			sm.Recovered++
			continue
		default:
			pt.state.mustValid()
		}
		sm.CurrentPatients++
	}
}

// apply derives the per-step event counts.
func (ev *stepEvents) apply(sm *StepMetrics) {
	for _, pe := range ev.patients {
		if pe.Recovered() {
			sm.Discharged++
		}
		if pe.Emerged {
			sm.ResistanceEmergence++
		}
	}
	for _, c := range ev.contacts {
		if !c.Transmitted {
			continue
		}
		switch c.Became {
		case ColonizedSusceptible:
			sm.NewColonizedS++
		case InfectedSusceptible:
			sm.NewInfectedS++
		case ColonizedResistant:
			sm.NewColonizedR++
		case InfectedResistant:
			sm.NewInfectedR++
		}
	}
	sm.Triaged = len(ev.triage)
	sm.Admitted = ev.admitted
}
