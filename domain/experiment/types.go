package experiment

import (
	"fmt"

	"convtest/domain/conversion"
	"convtest/domain/core"
)

// Default variant names used when a request leaves them empty.
const (
	DefaultNameA = "A"
	DefaultNameB = "B"
)

// Settings are the knobs shared by every kind of run.
type Settings struct {
	Alpha     float64                   `json:"alpha"`
	Direction conversion.Direction      `json:"direction"`
	Method    conversion.IntervalMethod `json:"method"`
}

// WithDefaults fills zero values with alpha 0.05, "greater" and Wald.
func (s Settings) WithDefaults() Settings {
	if s.Alpha == 0 {
		s.Alpha = conversion.DefaultAlpha
	}
	if s.Direction == "" {
		s.Direction = conversion.Greater
	}
	if s.Method == "" {
		s.Method = conversion.MethodWald
	}
	return s
}

// Validate checks alpha, direction and method.
func (s Settings) Validate() error {
	if err := conversion.ValidateAlpha(s.Alpha); err != nil {
		return err
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownDirection, s.Direction)
	}
	if _, err := conversion.ParseIntervalMethod(string(s.Method)); err != nil {
		return err
	}
	return nil
}

// Request asks for one simulated experiment.
type Request struct {
	A    conversion.Variant `json:"variant_a"`
	B    conversion.Variant `json:"variant_b"`
	Seed uint64             `json:"seed"`
	Settings
}

// Normalize applies default names and settings.
func (r Request) Normalize() Request {
	if r.A.Name == "" {
		r.A.Name = DefaultNameA
	}
	if r.B.Name == "" {
		r.B.Name = DefaultNameB
	}
	r.Settings = r.Settings.WithDefaults()
	return r
}

// Validate checks both variants and the settings.
func (r Request) Validate() error {
	if err := r.A.Validate(); err != nil {
		return err
	}
	if err := r.B.Validate(); err != nil {
		return err
	}
	if r.A.Name == r.B.Name {
		return core.NewInvalidArgumentError("variant names", "must differ")
	}
	return r.Settings.Validate()
}

// AnalysisRequest asks for estimates and a test on counts that were already
// observed.
type AnalysisRequest struct {
	NameA string                 `json:"name_a"`
	NameB string                 `json:"name_b"`
	A     conversion.Observation `json:"observation_a"`
	B     conversion.Observation `json:"observation_b"`
	Settings
}

// Normalize applies default names and settings.
func (r AnalysisRequest) Normalize() AnalysisRequest {
	if r.NameA == "" {
		r.NameA = DefaultNameA
	}
	if r.NameB == "" {
		r.NameB = DefaultNameB
	}
	r.Settings = r.Settings.WithDefaults()
	return r
}

// Validate checks both observations and the settings.
func (r AnalysisRequest) Validate() error {
	if err := r.A.Validate(); err != nil {
		return core.NewFieldError(r.NameA, err)
	}
	if err := r.B.Validate(); err != nil {
		return core.NewFieldError(r.NameB, err)
	}
	return r.Settings.Validate()
}

// VariantResult is everything computed for one variant.
type VariantResult struct {
	Name        string                      `json:"name"`
	TrueRate    *float64                    `json:"true_rate,omitempty"`
	Observation conversion.Observation      `json:"observation"`
	Estimate    conversion.IntervalEstimate `json:"estimate"`
}

// Report is the full outcome of an experiment run.
type Report struct {
	RunID     core.RunID            `json:"run_id"`
	CreatedAt core.Timestamp        `json:"created_at"`
	Simulated bool                  `json:"simulated"`
	Seed      uint64                `json:"seed,omitempty"`
	Settings  Settings              `json:"settings"`
	A         VariantResult         `json:"variant_a"`
	B         VariantResult         `json:"variant_b"`
	Test      conversion.TestResult `json:"test"`
}

// Variants returns A and B in order, for table renderers.
func (r *Report) Variants() []VariantResult {
	return []VariantResult{r.A, r.B}
}

// Hypothesis is the alternative hypothesis in terms of the variant names.
func (r *Report) Hypothesis() string {
	return r.Settings.Direction.Hypothesis(r.A.Name, r.B.Name)
}

// Decision summarizes the test outcome in one sentence.
func (r *Report) Decision() string {
	switch {
	case r.Test.Undefined():
		return "test undefined: pooled standard error is zero"
	case r.Test.Significant:
		return fmt.Sprintf("reject H0 at alpha=%g: evidence that %s", r.Settings.Alpha, r.Hypothesis())
	default:
		return fmt.Sprintf("fail to reject H0 at alpha=%g: no evidence that %s", r.Settings.Alpha, r.Hypothesis())
	}
}

// ReplicationRequest asks for the same simulated experiment repeated many
// times to measure coverage and rejection rate.
type ReplicationRequest struct {
	Request
	Replications int `json:"replications"`
}

// Validate checks the embedded request and the replication count.
func (r ReplicationRequest) Validate() error {
	if r.Replications <= 0 {
		return core.NewInvalidArgumentError("replications", "must be positive")
	}
	return r.Request.Validate()
}

// VariantSummary aggregates one variant across replications.
type VariantSummary struct {
	Name       string  `json:"name"`
	TrueRate   float64 `json:"true_rate"`
	MeanRate   float64 `json:"mean_rate"`
	StdDevRate float64 `json:"stddev_rate"`
	P05Rate    float64 `json:"p05_rate"`
	MedianRate float64 `json:"median_rate"`
	P95Rate    float64 `json:"p95_rate"`
	MeanWidth  float64 `json:"mean_interval_width"`
	// Coverage is the fraction of intervals containing TrueRate.
	Coverage float64 `json:"coverage"`
}

// ReplicationReport summarizes a replication study.
type ReplicationReport struct {
	RunID        core.RunID     `json:"run_id"`
	CreatedAt    core.Timestamp `json:"created_at"`
	Seed         uint64         `json:"seed"`
	Replications int            `json:"replications"`
	Settings     Settings       `json:"settings"`
	A            VariantSummary `json:"variant_a"`
	B            VariantSummary `json:"variant_b"`
	// RejectionRate is power when the true rates differ in the tested
	// direction and the type I error rate when they are equal.
	RejectionRate  float64 `json:"rejection_rate"`
	UndefinedCount int     `json:"undefined_count"`
}
