package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// Model is one simulation run of a single variant. It owns its population,
// its strategies and its random stream; a Model must not be shared between
// goroutines.
type Model struct {
	variant Variant
	params  Params
	seed    uint64
	rng     *rand.Rand

	logger    *log.Logger
	simLog    *SimLog
	reporter  *SimReporter
	observers []StepObserver

	topology   WardTopology
	policy     AssignmentPolicy
	admission  AdmissionPipeline
	compliance ComplianceModel
	engine     *InteractionEngine
	churn      ChurnController

	patients      []*Patient
	nurses        []*Nurse
	nextPatientID int
	tick          int
	metrics       StepMetrics

	order []int // scratch for the shuffled intrinsic pass
}

// New validates p for variant v and builds the initial population.
func New(v Variant, p Params, opts ...Option) (*Model, error) {
	if _, err := ParseVariant(v.String()); err != nil {
		return nil, fmt.Errorf("sim: new model: %w", err)
	}
	if err := p.ValidateFor(v); err != nil {
		return nil, err
	}

	m := &Model{
		variant: v,
		params:  p,
		seed:    DefaultSeed,
		logger:  discardLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.rng == nil {
		m.rng = newRand(m.seed)
	}

	m.topology = NewHospitalTopology()
	if v.Wards() {
		m.topology = NewWardTopology(p.NumWards)
	}
	if v.Persistent() {
		m.policy = NewPersistentAssignment()
	} else {
		m.policy = &AdHocAssignment{}
	}
	if v.AdmissionPipeline() {
		m.admission = NewTriageController(p)
	} else {
		m.admission = DirectAdmission{Topology: m.topology}
	}
	m.compliance = NewComplianceModel(p.ComplianceDecreaseRate, p.ComplianceBoost, m.admission.HighRiskWards()...)
	m.engine = NewInteractionEngine(p, m.topology, m.compliance, m.policy)
	m.churn = ChurnController{Rate: p.AdmissionRatePerStep, Capacity: p.MaxPatientCapacity}

	m.patients = make([]*Patient, 0, p.MaxPatientCapacity)
	for i := 0; i < p.InitialPatients; i++ {
		m.patients = append(m.patients, newPatient(i, m.topology.SeedWard(i), p, m.rng))
	}
	m.nextPatientID = p.InitialPatients

	total := p.NurseCount()
	m.nurses = make([]*Nurse, total)
	for i := range m.nurses {
		m.nurses[i] = newNurse(i, m.topology.NurseWard(i, total))
	}
	m.policy.Seed(m.patients, m.nurses, m.rng)

	m.metrics = m.collect(&stepEvents{})
	m.logger.Info("model constructed",
		"variant", v,
		"patients", len(m.patients),
		"nurses", len(m.nurses),
		"wards", m.topology.WardCount(),
		"seed", m.seed)
	return m, nil
}

// Step advances the model by one time unit:
//
//	triage -> intrinsic transitions -> admissions -> prune -> contacts -> metrics
func (m *Model) Step() {
	m.tick++
	ev := &stepEvents{}

	ev.triage = m.admission.Triage(m.patients, m.rng, m.transfer)
	for _, te := range ev.triage {
		m.simLog.Add(m.tick, patientLabel(te.PatientID), te.To, LogTriage, "route",
			fmt.Sprintf("ward %d → %d (%s)", te.From, te.To, te.State), float64(te.To))
	}

	discharged := m.stepAgents(ev)

	admit := m.churn.Admissions(discharged, m.activeCount())
	for i := 0; i < admit; i++ {
		m.admit()
	}
	ev.admitted = admit

	m.policy.Prune()

	m.engine.Resolve(m.patients, m.nurses, m.rng, func(c ContactOutcome) {
		ev.contacts = append(ev.contacts, c)
		m.recordContact(c)
	})
	if m.simLog != nil && m.simLog.verbose {
		for _, n := range m.nurses {
			m.simLog.AddVerbose(m.tick, nurseLabel(n.id), n.ward, LogNurse, "compliance",
				fmt.Sprintf("%.3f", n.compliance), n.compliance)
		}
	}

	m.admission.Advance(m.patients)

	m.metrics = m.collect(ev)
	m.logger.Debug("step",
		"variant", m.variant,
		"tick", m.tick,
		"active", m.metrics.CurrentPatients,
		"discharged", discharged,
		"admitted", admit,
		"triaged", len(ev.triage),
		"contacts", len(ev.contacts))

	if m.reporter != nil {
		m.reporter.Collect(m.metrics, m.Census())
	}
	for _, o := range m.observers {
		o.ObserveStep(m.variant, m.metrics)
	}
}

// stepAgents runs every patient and nurse state machine once, in a shuffled
// order over the combined population, and returns the number of patients
// that recovered.
func (m *Model) stepAgents(ev *stepEvents) int {
	np, nn := len(m.patients), len(m.nurses)
	m.order = m.order[:0]
	for i := 0; i < np+nn; i++ {
		m.order = append(m.order, i)
	}
	m.rng.Shuffle(len(m.order), func(i, j int) {
		m.order[i], m.order[j] = m.order[j], m.order[i]
	})

	discharged := 0
	ev.patients = make([]PatientEvent, 0, np)
	for _, idx := range m.order {
		if idx >= np {
			n := m.nurses[idx-np]
			if n.Step(m.params, m.rng) {
				m.simLog.AddVerbose(m.tick, nurseLabel(n.id), n.ward, LogNurse, "clean", "decontaminated", 0)
			}
			continue
		}
		pt := m.patients[idx]
		pe := pt.Step(m.params, m.rng)
		ev.patients = append(ev.patients, pe)
		m.recordPatient(pt, pe)
		if pe.Recovered() {
			discharged++
		}
	}
	return discharged
}

func (m *Model) admit() {
	ward := m.admission.EntryWard(m.rng)
	pt := newPatient(m.nextPatientID, ward, m.params, m.rng)
	pt.admittedAt = m.tick
	m.nextPatientID++
	m.patients = append(m.patients, pt)
	m.policy.Admit(pt, m.nurses, m.rng)
	m.simLog.Add(m.tick, patientLabel(pt.id), ward, LogChurn, "admit", pt.state.String(), 0)
}

func (m *Model) transfer(pt *Patient) {
	m.policy.Transfer(pt, m.nurses, m.rng)
}

func (m *Model) activeCount() int {
	n := 0
	for _, pt := range m.patients {
		if pt.state.Active() {
			n++
		}
	}
	return n
}

func (m *Model) collect(ev *stepEvents) StepMetrics {
	sm := StepMetrics{Step: m.tick}
	countStates(m.patients, &sm)
	ev.apply(&sm)
	sm.AverageWorkload = m.topology.AverageWorkload(m.patients, m.nurses)
	return sm
}

func (m *Model) recordPatient(pt *Patient, pe PatientEvent) {
	if m.simLog == nil {
		return
	}
	label := patientLabel(pt.id)
	if pe.Progressed {
		m.simLog.Add(m.tick, label, pt.ward, LogPatient, "progress", "colonized → infected", 0)
	}
	if pe.Emerged {
		m.simLog.Add(m.tick, label, pt.ward, LogPatient, "emerge", "Ip_s → Ip_r", 0)
	}
	if pe.Recovered() {
		m.simLog.Add(m.tick, label, pt.ward, LogPatient, "recover", fmt.Sprintf("%s → R", pe.From), 0)
	}
}

func (m *Model) recordContact(c ContactOutcome) {
	if m.simLog == nil {
		return
	}
	if c.PickedUp != Uncontaminated {
		m.simLog.Add(m.tick, nurseLabel(c.NurseID), c.Ward, LogContact, "pickup",
			fmt.Sprintf("%s from %s", c.PickedUp, patientLabel(c.PatientID)), 0)
	}
	if c.Transmitted {
		m.simLog.Add(m.tick, patientLabel(c.PatientID), c.Ward, LogContact, "transmit",
			fmt.Sprintf("%s from %s", c.Became, nurseLabel(c.NurseID)), 0)
	}
}

// Variant returns the model variant.
func (m *Model) Variant() Variant { return m.variant }

// Params returns the parameter table the model was built with.
func (m *Model) Params() Params { return m.params }

// Seed returns the seed of the model's stream, DefaultSeed unless WithSeed
// was given.
func (m *Model) Seed() uint64 { return m.seed }

// Tick returns the number of completed steps.
func (m *Model) Tick() int { return m.tick }

// Metrics returns the metrics of the last completed step. Before the first
// step they describe the seeded population.
func (m *Model) Metrics() StepMetrics { return m.metrics }

// Patients returns every patient ever admitted, Recovered included.
func (m *Model) Patients() []*Patient {
	return append([]*Patient(nil), m.patients...)
}

// Nurses returns the fixed nurse roster.
func (m *Model) Nurses() []*Nurse {
	return append([]*Nurse(nil), m.nurses...)
}

// Census counts every interaction scope.
func (m *Model) Census() []WardCensus {
	return m.topology.Census(m.patients, m.nurses)
}

// Assignments returns nurse id -> assigned patient ids for persistent
// variants, nil otherwise.
func (m *Model) Assignments() map[int][]int {
	pa, ok := m.policy.(*PersistentAssignment)
	if !ok {
		return nil
	}
	return pa.Table()
}

func patientLabel(id int) string { return fmt.Sprintf("P%d", id) }
func nurseLabel(id int) string { return fmt.Sprintf("N%d", id) }
