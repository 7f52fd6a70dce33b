package batch

import (
	"sort"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// Result is the row table of one batch.
type Result struct {
	Variant sim.Variant
	Runs    int
	Steps   int
	Rows    []Row
}

// MeanRow is the across-run mean of one step, in sim.MetricColumns order.
type MeanRow struct {
	Step   int
	Values []float64
}

// Get returns the mean of the named column, 0 for an unknown name.
func (mr MeanRow) Get(column string) float64 {
	i := sim.ColumnIndex(column)
	if i < 0 || i >= len(mr.Values) {
		return 0
	}
	return mr.Values[i]
}

// Mean groups rows by step and averages every metric column.
func (res *Result) Mean() []MeanRow {
	sums := map[int][]float64{}
	counts := map[int]int{}
	for _, row := range res.Rows {
		vals := row.Metrics.Values()
		acc, ok := sums[row.Step]
		if !ok {
			acc = make([]float64, len(vals))
			sums[row.Step] = acc
		}
		for i, v := range vals {
			acc[i] += v
		}
		counts[row.Step]++
	}

	out := make([]MeanRow, 0, len(sums))
	for step, acc := range sums {
		n := float64(counts[step])
		for i := range acc {
			acc[i] /= n
		}
		out = append(out, MeanRow{Step: step, Values: acc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

func newResistant(mr MeanRow) float64 {
	return mr.Get("New_Colonized_R") + mr.Get("New_Infected_R")
}

// CumulativeResistant is the running total of new resistant-strain cases.
func CumulativeResistant(mean []MeanRow) []float64 {
	out := make([]float64, len(mean))
	total := 0.0
	for i, mr := range mean {
		total += newResistant(mr)
		out[i] = total
	}
	return out
}

// NewResistantProportion is new resistant-strain cases over the susceptible
// count of the same step, 0 where no one is susceptible.
func NewResistantProportion(mean []MeanRow) []float64 {
	out := make([]float64, len(mean))
	for i, mr := range mean {
		if s := mr.Get("Susceptible"); s > 0 {
			out[i] = newResistant(mr) / s
		}
	}
	return out
}
