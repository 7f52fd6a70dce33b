package sim

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Params is the full parameter table of a simulation run. Field names in
// YAML follow the epidemiological notation used in the model description.
type Params struct {
	// Transmission and recovery.
	Kappa  float64 `yaml:"kappa" env:"KAPPA" validate:"gte=0,lte=1"` // colonized -> infected base rate
	MS     float64 `yaml:"m_s" env:"M_S" validate:"gte=0,lte=1"`     // progression modifier
	DeltaM float64 `yaml:"delta_m" env:"DELTA_M" validate:"gte=0"`   // resistant progression uplift
	PsiS   float64 `yaml:"psi_s" env:"PSI_S" validate:"gte=0,lte=1"` // susceptible-strain resolution
	PsiR   float64 `yaml:"psi_r" env:"PSI_R" validate:"gte=0,lte=1"` // resistant-strain resolution
	Iota   float64 `yaml:"iota" env:"IOTA" validate:"gte=0,lte=1"`   // fraction treated
	SP     float64 `yaml:"s_p" env:"S_P" validate:"gte=0,lte=1"`     // resistant treatment penalty
	MuC    float64 `yaml:"mu_c" env:"MU_C" validate:"gte=0,lte=1"`   // colonization clearance
	A      float64 `yaml:"a" env:"A" validate:"gte=0"`               // contact intensity
	BNP    float64 `yaml:"b_np" env:"B_NP" validate:"gte=0,lte=1"`   // nurse -> patient
	BPN    float64 `yaml:"b_pn" env:"B_PN" validate:"gte=0,lte=1"`   // patient -> nurse
	N      float64 `yaml:"n" env:"N" validate:"gte=0"`               // colonized shedding multiplier
	SB     float64 `yaml:"s_b" env:"S_B" validate:"gte=0,lte=1"`     // resistant transmissibility penalty
	Theta  float64 `yaml:"theta" env:"THETA" validate:"gte=0,lte=1"` // high-vigilance weight
	X      float64 `yaml:"x" env:"X" validate:"gte=0,lte=1"`         // infection vs colonization on transmission
	Low    float64 `yaml:"low" env:"LOW" validate:"gte=0,lte=1"`     // low-vigilance decontamination
	High   float64 `yaml:"high" env:"HIGH" validate:"gte=0,lte=1"`   // high-vigilance decontamination

	// Initial state distribution.
	LambdaCR float64 `yaml:"lambda_cr" env:"LAMBDA_CR" validate:"gte=0,lte=1"`
	LambdaCS float64 `yaml:"lambda_cs" env:"LAMBDA_CS" validate:"gte=0,lte=1"`
	LambdaIR float64 `yaml:"lambda_ir" env:"LAMBDA_IR" validate:"gte=0,lte=1"`
	LambdaIS float64 `yaml:"lambda_is" env:"LAMBDA_IS" validate:"gte=0,lte=1"`

	// Granular model.
	NurseMaxInteractions    int     `yaml:"nurse_max_interactions" env:"NURSE_MAX_INTERACTIONS" validate:"gte=0"`
	ComplianceDecreaseRate  float64 `yaml:"compliance_decrease_rate" env:"COMPLIANCE_DECREASE_RATE" validate:"gte=0"`
	ProbResistanceEmergence float64 `yaml:"prob_resistance_emergence" env:"PROB_RESISTANCE_EMERGENCE" validate:"gte=0,lte=1"`

	// Population.
	InitialPatients      int `yaml:"initial_patients" env:"INITIAL_PATIENTS" validate:"gte=0"`
	MaxPatientCapacity   int `yaml:"max_patient_capacity" env:"MAX_PATIENT_CAPACITY" validate:"gte=0"`
	AdmissionRatePerStep int `yaml:"admission_rate_per_step" env:"ADMISSION_RATE_PER_STEP" validate:"gte=0"`

	// Staffing. A positive ratio overrides NumNurses.
	TargetPatientToNurseRatio float64 `yaml:"target_patient_to_nurse_ratio" env:"TARGET_PATIENT_TO_NURSE_RATIO" validate:"gte=0"`
	NumNurses                 int     `yaml:"num_nurses" env:"NUM_NURSES" validate:"gte=0"`
	NumWards                  int     `yaml:"num_wards" env:"NUM_WARDS" validate:"gte=0"`

	// Admission ward and cohorting.
	AdmissionWardID       int     `yaml:"admission_ward_id" env:"ADMISSION_WARD_ID" validate:"gte=0"`
	ResistantCohortWardID int     `yaml:"resistant_cohort_ward_id" env:"RESISTANT_COHORT_WARD_ID" validate:"gte=0"`
	AdmissionPeriod       int     `yaml:"admission_period" env:"ADMISSION_PERIOD" validate:"gte=0"`
	ComplianceBoost       float64 `yaml:"compliance_boost" env:"COMPLIANCE_BOOST" validate:"gte=0,lte=1"`
}

// DefaultParams returns the reference parameter table.
func DefaultParams() Params {
	return Params{
		A: 5.0, X: 0.2, N: 0.3, SB: 0.25, SP: 0.1,
		Theta: 0.8, Low: 0.1, High: 0.5,
		PsiS: 0.0833, PsiR: 0.0454, Iota: 0.8,
		Kappa: 0.1428, MS: 0.3, DeltaM: 0.25,
		MuC: 0.015, BNP: 0.09, BPN: 0.3,
		LambdaCS: 0.02, LambdaCR: 0.02,
		LambdaIS: 0.01, LambdaIR: 0.01,

		NurseMaxInteractions:    7,
		ComplianceDecreaseRate:  0.05,
		ProbResistanceEmergence: 0.001,

		InitialPatients:      275,
		MaxPatientCapacity:   400,
		AdmissionRatePerStep: 10,

		TargetPatientToNurseRatio: 10,
		NumNurses:                 150,
		NumWards:                  10,

		AdmissionWardID:       0,
		ResistantCohortWardID: 1,
		AdmissionPeriod:       3,
		ComplianceBoost:       0.25,
	}
}

// MaxNurses bounds the staffed nurse count.
const MaxNurses = 1 << 20

// NurseCount derives the staffed nurse count. It returns -1 when the
// ratio yields a count above MaxNurses or one that is not finite.
func (p Params) NurseCount() int {
	if p.TargetPatientToNurseRatio > 0 {
		n := math.Ceil(float64(p.InitialPatients) / p.TargetPatientToNurseRatio)
		if math.IsNaN(n) || n > MaxNurses {
			return -1
		}
		return int(n)
	}
	return p.NumNurses
}

// DecontaminationRate is the base probability that a contaminated nurse
// cleans up in one step at full compliance.
func (p Params) DecontaminationRate() float64 {
	return (1-p.Theta)*p.Low + p.Theta*p.High
}

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError lists every problem found in a parameter table.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "sim: invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Is lets callers test with errors.Is(err, ErrInvalidConfig).
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func paramValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field ranges and variant-independent cross-field rules.
func (p Params) Validate() error {
	return p.ValidateFor(NoWard)
}

// ValidateFor checks p for use with the given model variant.
func (p Params) ValidateFor(v Variant) error {
	pc := &paramCheck{}

	if err := paramValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("sim: validate params: %w", err)
		}
		for _, fe := range verrs {
			pc.addf("%s: value %v violates %s", fe.Field(), fe.Value(), ruleText(fe))
		}
	}

	lambda := p.LambdaCR + p.LambdaCS + p.LambdaIR + p.LambdaIS
	pc.check(lambda <= 1+1e-12, "lambda_cr+lambda_cs+lambda_ir+lambda_is: total %.4f exceeds 1", lambda)
	pc.check(p.InitialPatients <= p.MaxPatientCapacity,
		"initial_patients: %d exceeds max_patient_capacity %d", p.InitialPatients, p.MaxPatientCapacity)

	nurses := p.NurseCount()
	if p.TargetPatientToNurseRatio > 0 {
		pc.check(nurses >= 0, "target_patient_to_nurse_ratio: %g staffs more than %d nurses", p.TargetPatientToNurseRatio, MaxNurses)
	} else {
		pc.check(nurses <= MaxNurses, "num_nurses: %d exceeds %d", p.NumNurses, MaxNurses)
	}

	if v.Wards() {
		pc.check(p.NumWards >= 1, "num_wards: ward variants need at least one ward, got %d", p.NumWards)
		pc.check(nurses >= 1, "num_nurses: ward variants need at least one nurse, got %d", nurses)
	}
	if v.AdmissionPipeline() {
		pc.check(p.AdmissionWardID < p.NumWards,
			"admission_ward_id: %d is outside wards [0,%d)", p.AdmissionWardID, p.NumWards)
		pc.check(p.ResistantCohortWardID < p.NumWards,
			"resistant_cohort_ward_id: %d is outside wards [0,%d)", p.ResistantCohortWardID, p.NumWards)
	}

	return pc.err()
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// paramCheck collects problems rather than failing on the first one.
type paramCheck struct {
	problems []string
}

func (pc *paramCheck) addf(format string, args ...any) {
	pc.problems = append(pc.problems, fmt.Sprintf(format, args...))
}

func (pc *paramCheck) check(ok bool, format string, args ...any) {
	if !ok {
		pc.addf(format, args...)
	}
}

func (pc *paramCheck) err() error {
	if len(pc.problems) == 0 {
		return nil
	}
	return &ConfigError{Problems: pc.problems}
}
