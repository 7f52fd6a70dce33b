// Package report turns mean-per-step batch results into a comparison table,
// a cumulative resistant-case chart and clipboard text.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Garsondee/Ward-Sense/internal/batch"
	"github.com/Garsondee/Ward-Sense/internal/sim"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Summary condenses one variant's mean series.
type Summary struct {
	Variant             sim.Variant
	Steps               int
	FinalActive         float64
	CumulativeResistant float64
	PeakInfectedR       float64
	PeakStep            int
	MeanWorkload        float64
	TotalEmergence      float64
	FirstResistantStep  int // -1 when no new resistant case occurs
}

// Summarize reduces a mean-per-step series to a Summary.
func Summarize(v sim.Variant, mean []batch.MeanRow) Summary {
	s := Summary{Variant: v, Steps: len(mean), FirstResistantStep: -1}
	if len(mean) == 0 {
		return s
	}
	cum := batch.CumulativeResistant(mean)
	s.FinalActive = mean[len(mean)-1].Get("Current_Patients")
	s.CumulativeResistant = cum[len(cum)-1]

	workload := 0.0
	for i, mr := range mean {
		if ir := mr.Get("Infected_R"); ir > s.PeakInfectedR {
			s.PeakInfectedR = ir
			s.PeakStep = mr.Step
		}
		workload += mr.Get("Average_Nurse_Workload_Factor")
		s.TotalEmergence += mr.Get("Resistance_Emergence")
		if s.FirstResistantStep < 0 && cum[i] > 0 {
			s.FirstResistantStep = mr.Step
		}
	}
	s.MeanWorkload = workload / float64(len(mean))
	return s
}

func stepString(step int) string {
	if step < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d", step)
}

// Comparison renders one table row per variant present in means, in
// sim.AllVariants order.
func Comparison(means map[sim.Variant][]batch.MeanRow) string {
	var summaries []Summary
	for _, v := range sim.AllVariants() {
		if mean, ok := means[v]; ok {
			summaries = append(summaries, Summarize(v, mean))
		}
	}
	return ComparisonTable(summaries)
}

// ComparisonTable renders precomputed summaries.
func ComparisonTable(summaries []Summary) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Model", "Final active", "Cum. resistant", "Peak Ip_r (step)", "Mean workload", "Emergence", "First resistant")
	for _, s := range summaries {
		t.Row(
			s.Variant.Title(),
			fmt.Sprintf("%.1f", s.FinalActive),
			fmt.Sprintf("%.2f", s.CumulativeResistant),
			fmt.Sprintf("%.2f (%d)", s.PeakInfectedR, s.PeakStep),
			fmt.Sprintf("%.2f", s.MeanWorkload),
			fmt.Sprintf("%.3f", s.TotalEmergence),
			stepString(s.FirstResistantStep),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== Ward Model Comparison ==="))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// PlainSummary is a single key=value line per variant, suitable for logs and
// the clipboard.
func PlainSummary(s Summary) string {
	return fmt.Sprintf("%s: steps=%d final_active=%.1f cumulative_resistant=%.2f peak_infected_r=%.2f@%d mean_workload=%.2f emergence=%.3f first_resistant=%s",
		s.Variant, s.Steps, s.FinalActive, s.CumulativeResistant, s.PeakInfectedR, s.PeakStep,
		s.MeanWorkload, s.TotalEmergence, stepString(s.FirstResistantStep))
}
