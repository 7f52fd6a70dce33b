package sim

import (
	"fmt"
	"strings"
)

// Variant selects one of the five hospital structures. Each variant is a
// combination of three independent choices: interaction scope, assignment
// policy and admission pipeline.
type Variant int

const (
	NoWard Variant = iota
	Ward
	PatientAssignment
	AdmissionWard
	AdmissionPatientAssignment
)

// AllVariants returns the variants in increasing order of structure.
func AllVariants() []Variant {
	return []Variant{NoWard, Ward, PatientAssignment, AdmissionWard, AdmissionPatientAssignment}
}

func (v Variant) String() string {
	switch v {
	case NoWard:
		return "no-ward"
	case Ward:
		return "ward"
	case PatientAssignment:
		return "patient-assignment"
	case AdmissionWard:
		return "admission-ward"
	case AdmissionPatientAssignment:
		return "admission-patient-assignment"
	default:
		return "unknown"
	}
}

// Title is the human-readable name used in reports.
func (v Variant) Title() string {
	switch v {
	case NoWard:
		return "No Ward Model"
	case Ward:
		return "Ward Model"
	case PatientAssignment:
		return "Patient Assignment Model"
	case AdmissionWard:
		return "Admission Ward Model"
	case AdmissionPatientAssignment:
		return "Admission Patient Assignment Model"
	default:
		return "Unknown Model"
	}
}

// Wards reports whether interactions are scoped per ward.
func (v Variant) Wards() bool {
	return v != NoWard
}

// Persistent reports whether nurses keep a durable patient list.
func (v Variant) Persistent() bool {
	return v == PatientAssignment || v == AdmissionPatientAssignment
}

// AdmissionPipeline reports whether new patients pass through the admission ward.
func (v Variant) AdmissionPipeline() bool {
	return v == AdmissionWard || v == AdmissionPatientAssignment
}

// ParseVariant accepts the String form, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, v := range AllVariants() {
		if v.String() == want {
			return v, nil
		}
	}
	return NoWard, fmt.Errorf("sim: unknown variant %q", s)
}
