// Package telemetry exports simulation step metrics as Prometheus series.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// Recorder observes model steps and batch runs. It is safe for concurrent
// use by parallel runs.
type Recorder struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	furthest map[sim.Variant]int // highest step whose states Patients holds

	Patients           *prometheus.GaugeVec
	NewCases           *prometheus.CounterVec
	Emergence          *prometheus.CounterVec
	Admissions         *prometheus.CounterVec
	Discharges         *prometheus.CounterVec
	Triaged            *prometheus.CounterVec
	Steps              *prometheus.CounterVec
	Workload           *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds *prometheus.HistogramVec
}

// NewRecorder registers every series on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		furthest: map[sim.Variant]int{},
		Patients: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wardsense_patients",
				Help: "Patients per health state at the furthest step reached by any run of the variant",
			},
			[]string{"variant", "state"},
		),
		NewCases: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_new_cases_total",
				Help: "Transmissions by strain and outcome",
			},
			[]string{"variant", "strain", "outcome"}, // susceptible|resistant, colonized|infected
		),
		Emergence: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_resistance_emergence_total",
				Help: "In-host conversions from susceptible to resistant infection",
			},
			[]string{"variant"},
		),
		Admissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_admissions_total",
				Help: "Patients admitted after the initial population",
			},
			[]string{"variant"},
		),
		Discharges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_discharges_total",
				Help: "Active to Recovered transitions",
			},
			[]string{"variant"},
		),
		Triaged: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_triaged_total",
				Help: "Patients routed out of the admission ward",
			},
			[]string{"variant"},
		),
		Steps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_steps_total",
				Help: "Completed simulation steps",
			},
			[]string{"variant"},
		),
		Workload: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardsense_nurse_workload_factor",
				Help:    "Average active patients per nurse, observed once per step",
				Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 20, 30},
			},
			[]string{"variant"},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsense_runs_total",
				Help: "Batch runs by result",
			},
			[]string{"variant", "result"}, // ok, error, cancelled
		),
		RunDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardsense_run_duration_seconds",
				Help:    "Wall time of one batch run",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"variant"},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStep implements sim.StepObserver.
func (r *Recorder) ObserveStep(v sim.Variant, m sim.StepMetrics) {
	name := v.String()
	r.setPatients(v, m)

	r.NewCases.WithLabelValues(name, "susceptible", "colonized").Add(float64(m.NewColonizedS))
	r.NewCases.WithLabelValues(name, "susceptible", "infected").Add(float64(m.NewInfectedS))
	r.NewCases.WithLabelValues(name, "resistant", "colonized").Add(float64(m.NewColonizedR))
	r.NewCases.WithLabelValues(name, "resistant", "infected").Add(float64(m.NewInfectedR))

	r.Emergence.WithLabelValues(name).Add(float64(m.ResistanceEmergence))
	r.Admissions.WithLabelValues(name).Add(float64(m.Admitted))
	r.Discharges.WithLabelValues(name).Add(float64(m.Discharged))
	r.Triaged.WithLabelValues(name).Add(float64(m.Triaged))
	r.Steps.WithLabelValues(name).Inc()
	r.Workload.WithLabelValues(name).Observe(m.AverageWorkload)
}

// setPatients updates the state gauges unless a run of v has already
// reported a later step, so the gauges never move back in time.
func (r *Recorder) setPatients(v sim.Variant, m sim.StepMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Step < r.furthest[v] {
		return
	}
	r.furthest[v] = m.Step

	name := v.String()
	r.Patients.WithLabelValues(name, sim.Susceptible.String()).Set(float64(m.Susceptible))
	r.Patients.WithLabelValues(name, sim.ColonizedSusceptible.String()).Set(float64(m.ColonizedS))
	r.Patients.WithLabelValues(name, sim.InfectedSusceptible.String()).Set(float64(m.InfectedS))
	r.Patients.WithLabelValues(name, sim.ColonizedResistant.String()).Set(float64(m.ColonizedR))
	r.Patients.WithLabelValues(name, sim.InfectedResistant.String()).Set(float64(m.InfectedR))
	r.Patients.WithLabelValues(name, sim.Recovered.String()).Set(float64(m.Recovered))
}

// RecordRun records the outcome of one batch run.
func (r *Recorder) RecordRun(v sim.Variant, result string, d time.Duration) {
	r.RunsTotal.WithLabelValues(v.String(), result).Inc()
	r.RunDurationSeconds.WithLabelValues(v.String()).Observe(d.Seconds())
}

// WriteTextfile writes the current values in the node_exporter textfile
// format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("telemetry: write textfile: %w", err)
	}
	return nil
}

var _ sim.StepObserver = (*Recorder)(nil)
