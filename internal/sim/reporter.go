package sim

import (
	"fmt"
	"strings"
)

// reportWindowSteps is the default sliding window for recent-behaviour
// reports (one month of simulated days).
const reportWindowSteps = 30

// StepReport is one collected step.
type StepReport struct {
	Metrics StepMetrics
	Wards   []WardCensus // only kept in verbose mode
}

// SimReporter collects step metrics and produces summaries over a sliding
// window of steps.
type SimReporter struct {
	history     []StepReport
	windowSteps int
	verbose     bool
}

// NewSimReporter creates a reporter with the given window size.
func NewSimReporter(windowSteps int, verbose bool) *SimReporter {
	if windowSteps <= 0 {
		windowSteps = reportWindowSteps
	}
	return &SimReporter{
		windowSteps: windowSteps,
		verbose:     verbose,
	}
}

// Collect appends one step. The model calls this after every step when the
// reporter is attached with WithReporter.
func (r *SimReporter) Collect(m StepMetrics, census []WardCensus) {
	rep := StepReport{Metrics: m}
	if r.verbose {
		rep.Wards = append([]WardCensus(nil), census...)
	}
	r.history = append(r.history, rep)
}

// Latest returns the most recent report, or nil if none collected yet.
func (r *SimReporter) Latest() *StepReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// Len returns the number of collected steps.
func (r *SimReporter) Len() int {
	return len(r.history)
}

// WindowSummary aggregates the reports within the window ending at the
// latest step.
func (r *SimReporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}

	latest := r.history[len(r.history)-1].Metrics.Step
	cutoff := latest - r.windowSteps + 1
	var window []StepReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Metrics.Step < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromStep:    window[len(window)-1].Metrics.Step,
		ToStep:      window[0].Metrics.Step,
		SampleCount: len(window),
	}
	for _, rpt := range window {
		m := rpt.Metrics
		wr.AvgActive += float64(m.CurrentPatients)
		wr.AvgSusceptible += float64(m.Susceptible)
		wr.AvgColonizedS += float64(m.ColonizedS)
		wr.AvgInfectedS += float64(m.InfectedS)
		wr.AvgColonizedR += float64(m.ColonizedR)
		wr.AvgInfectedR += float64(m.InfectedR)
		wr.AvgWorkload += m.AverageWorkload

		wr.NewSusceptibleStrain += m.NewColonizedS + m.NewInfectedS
		wr.NewResistantStrain += m.NewResistant()
		wr.Emergence += m.ResistanceEmergence
		wr.Admitted += m.Admitted
		wr.Discharged += m.Discharged
		wr.Triaged += m.Triaged
		wr.PeakInfectedR = max(wr.PeakInfectedR, m.InfectedR)
	}
	wr.AvgActive /= n
	wr.AvgSusceptible /= n
	wr.AvgColonizedS /= n
	wr.AvgInfectedS /= n
	wr.AvgColonizedR /= n
	wr.AvgInfectedR /= n
	wr.AvgWorkload /= n

	if r.verbose {
		wr.Wards = window[0].Wards
	}
	return wr
}

// WindowReport is an aggregated summary over a window of steps.
type WindowReport struct {
	FromStep, ToStep int
	SampleCount      int

	// Averages over the window.
	AvgActive, AvgSusceptible   float64
	AvgColonizedS, AvgInfectedS float64
	AvgColonizedR, AvgInfectedR float64
	AvgWorkload                 float64

	// Totals over the window.
	NewSusceptibleStrain int
	NewResistantStrain   int
	Emergence            int
	Admitted             int
	Discharged           int
	Triaged              int
	PeakInfectedR        int

	// Ward census at the last step (verbose only).
	Wards []WardCensus
}

// Format returns a human-readable multi-line string of the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Ward Report (S=%d..%d, %d samples) ===\n",
		wr.FromStep, wr.ToStep, wr.SampleCount)

	sb.WriteString("\n--- Average Census ---\n")
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "active", wr.AvgActive)
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "S", wr.AvgSusceptible)
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "Cp_s", wr.AvgColonizedS)
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "Ip_s", wr.AvgInfectedS)
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "Cp_r", wr.AvgColonizedR)
	fmt.Fprintf(&sb, "  %-14s %7.1f\n", "Ip_r", wr.AvgInfectedR)
	fmt.Fprintf(&sb, "  %-14s %7.2f\n", "workload", wr.AvgWorkload)

	sb.WriteString("\n--- Window Totals ---\n")
	fmt.Fprintf(&sb, "  new s-strain=%d  new r-strain=%d  emergence=%d  peak Ip_r=%d\n",
		wr.NewSusceptibleStrain, wr.NewResistantStrain, wr.Emergence, wr.PeakInfectedR)
	fmt.Fprintf(&sb, "  admitted=%d  discharged=%d  triaged=%d\n",
		wr.Admitted, wr.Discharged, wr.Triaged)

	if len(wr.Wards) > 0 {
		sb.WriteString("\n--- Wards ---\n")
		for _, c := range wr.Wards {
			fmt.Fprintf(&sb, "  %-9s active=%-4d recovered=%-4d nurses=%-3d workload=%.2f\n",
				c.Scope, c.Active, c.Recovered, c.Nurses, c.Workload)
		}
	}
	return sb.String()
}
