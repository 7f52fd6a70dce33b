package sim

// ComplianceModel turns a scope's workload into nurse hand-hygiene
// compliance, boosting nurses that work in high-risk wards.
type ComplianceModel struct {
	DecreaseRate float64
	Boost        float64
	highRisk     map[int]bool
}

// NewComplianceModel builds a model; highRisk lists the ward ids that
// receive the boost.
func NewComplianceModel(decreaseRate, boost float64, highRisk ...int) ComplianceModel {
	cm := ComplianceModel{DecreaseRate: decreaseRate, Boost: boost}
	if len(highRisk) > 0 {
		cm.highRisk = make(map[int]bool, len(highRisk))
		for _, w := range highRisk {
			cm.highRisk[w] = true
		}
	}
	return cm
}

// HighRisk reports whether ward receives the compliance boost.
func (cm ComplianceModel) HighRisk(ward int) bool {
	return cm.highRisk[ward]
}

// Apply recomputes the nurse's compliance from the workload of its scope.
func (cm ComplianceModel) Apply(n *Nurse, workloadFactor float64) {
	n.UpdateCompliance(workloadFactor, cm.DecreaseRate)
	if cm.HighRisk(n.ward) {
		n.BoostCompliance(cm.Boost)
	}
}

// Compliance is the value Apply would assign to a nurse in ward.
func (cm ComplianceModel) Compliance(workloadFactor float64, ward int) float64 {
	n := Nurse{ward: ward}
	cm.Apply(&n, workloadFactor)
	return n.compliance
}
