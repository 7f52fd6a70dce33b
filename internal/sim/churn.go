package sim

// ChurnController bounds admissions by the hospital's capacity.
type ChurnController struct {
	Rate     int // admissions per step while under capacity
	Capacity int
}

// Admissions returns how many patients to admit this step given how many
// were discharged (moved to Recovered) and how many remain active. Under
// capacity the rate applies, capped at the free beds; at capacity only
// discharged patients are replaced.
func (c ChurnController) Admissions(discharged, active int) int {
	if active < c.Capacity {
		return min(c.Rate, c.Capacity-active)
	}
	return discharged
}
