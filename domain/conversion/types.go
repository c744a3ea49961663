// Package conversion holds the value types shared by the conversion-rate
// generator, estimator and tester. Values are computed once and never
// mutated.
package conversion

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"convtest/domain/core"
)

// Observation is the tally for one variant: how many visitors saw it and how
// many of them converted.
type Observation struct {
	Trials    int `json:"trials"`
	Successes int `json:"successes"`
}

// NewObservation validates and returns an observation.
func NewObservation(trials, successes int) (Observation, error) {
	obs := Observation{Trials: trials, Successes: successes}
	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// Validate enforces Trials > 0 and 0 <= Successes <= Trials.
func (o Observation) Validate() error {
	if o.Trials <= 0 {
		return core.NewFieldError("trials", core.ErrNonPositiveTrials)
	}
	if o.Successes < 0 || o.Successes > o.Trials {
		return core.NewFieldError("successes", core.ErrSuccessesOutOfRange)
	}
	return nil
}

// Rate returns the observed conversion rate k/n. It assumes a valid
// observation.
func (o Observation) Rate() float64 {
	return float64(o.Successes) / float64(o.Trials)
}

func (o Observation) String() string {
	return fmt.Sprintf("%d/%d", o.Successes, o.Trials)
}

// Variant describes a simulated page variant.
type Variant struct {
	Name     string  `json:"name"`
	Trials   int     `json:"trials"`
	TrueRate float64 `json:"true_rate"`
}

// Validate checks the simulation parameters.
func (v Variant) Validate() error {
	if v.Trials <= 0 {
		return core.NewFieldError(v.field("trials"), core.ErrNonPositiveTrials)
	}
	if math.IsNaN(v.TrueRate) || v.TrueRate < 0 || v.TrueRate > 1 {
		return core.NewFieldError(v.field("true_rate"), core.ErrProbabilityRange)
	}
	return nil
}

func (v Variant) field(name string) string {
	if v.Name == "" {
		return name
	}
	return v.Name + "." + name
}

// IntervalMethod selects how a confidence interval is built.
type IntervalMethod string

const (
	// MethodWald is the normal-approximation interval p ± z·sqrt(p(1-p)/n).
	// It is not clipped to [0,1] and undercovers for small n or extreme p.
	MethodWald IntervalMethod = "wald"
	// MethodWilson is the Wilson score interval. Only used when requested.
	MethodWilson IntervalMethod = "wilson"
)

// ParseIntervalMethod maps a user string to a method; empty means Wald.
func ParseIntervalMethod(s string) (IntervalMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MethodWald):
		return MethodWald, nil
	case string(MethodWilson):
		return MethodWilson, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownMethod, s)
}

// IntervalEstimate is a point estimate with its confidence bounds.
// Lower <= PointEstimate <= Upper always holds; the bounds may leave [0,1]
// under the Wald approximation.
type IntervalEstimate struct {
	Method        IntervalMethod `json:"method"`
	PointEstimate float64        `json:"point_estimate"`
	StandardError float64        `json:"standard_error"`
	Lower         float64        `json:"lower_bound"`
	Upper         float64        `json:"upper_bound"`
	Alpha         float64        `json:"alpha"`
}

// Width is Upper - Lower.
func (e IntervalEstimate) Width() float64 { return e.Upper - e.Lower }

// HalfWidth is half of Width; for Wald it equals z·SE.
func (e IntervalEstimate) HalfWidth() float64 { return e.Width() / 2 }

// Contains reports whether p lies within the closed interval.
func (e IntervalEstimate) Contains(p float64) bool {
	return p >= e.Lower && p <= e.Upper
}

// ConfidenceLevel is 1 - Alpha.
func (e IntervalEstimate) ConfidenceLevel() float64 { return 1 - e.Alpha }

// Direction is the alternative hypothesis of the two-proportion test,
// phrased as variant B relative to variant A.
type Direction string

const (
	Greater  Direction = "greater"
	Less     Direction = "less"
	TwoSided Direction = "two-sided"
)

// ParseDirection accepts the canonical names plus a few common aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greater", "larger", "gt":
		return Greater, nil
	case "less", "smaller", "lt":
		return Less, nil
	case "two-sided", "two_sided", "twosided", "ne":
		return TwoSided, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownDirection, s)
}

// Valid reports whether d is one of the three supported directions.
func (d Direction) Valid() bool {
	return d == Greater || d == Less || d == TwoSided
}

// Opposite swaps greater and less; two-sided maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case Greater:
		return Less
	case Less:
		return Greater
	}
	return d
}

// Hypothesis renders the alternative as text, e.g. "B > A".
func (d Direction) Hypothesis(a, b string) string {
	switch d {
	case Greater:
		return b + " > " + a
	case Less:
		return b + " < " + a
	}
	return b + " != " + a
}

// TestResult is the outcome of a pooled two-proportion z-test. Statistic
// and PValue are NaN when the pooled standard error is zero.
type TestResult struct {
	Direction     Direction `json:"direction"`
	Statistic     float64   `json:"statistic"`
	PValue        float64   `json:"p_value"`
	PooledRate    float64   `json:"pooled_rate"`
	StandardError float64   `json:"standard_error"`
	RateA         float64   `json:"rate_a"`
	RateB         float64   `json:"rate_b"`
	Difference    float64   `json:"difference"`
	Alpha         float64   `json:"alpha"`
	Significant   bool      `json:"significant"`
}

// Undefined reports whether the statistic could not be computed.
func (r TestResult) Undefined() bool {
	return math.IsNaN(r.Statistic) || math.IsNaN(r.PValue)
}

// MarshalJSON writes NaN values as null, which encoding/json cannot
// represent otherwise.
func (r TestResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		Direction     Direction `json:"direction"`
		Statistic     *float64  `json:"statistic"`
		PValue        *float64  `json:"p_value"`
		PooledRate    float64   `json:"pooled_rate"`
		StandardError float64   `json:"standard_error"`
		RateA         float64   `json:"rate_a"`
		RateB         float64   `json:"rate_b"`
		Difference    float64   `json:"difference"`
		Alpha         float64   `json:"alpha"`
		Significant   bool      `json:"significant"`
		Undefined     bool      `json:"undefined"`
	}
	return json.Marshal(wire{
		Direction:     r.Direction,
		Statistic:     finiteOrNil(r.Statistic),
		PValue:        finiteOrNil(r.PValue),
		PooledRate:    r.PooledRate,
		StandardError: r.StandardError,
		RateA:         r.RateA,
		RateB:         r.RateB,
		Difference:    r.Difference,
		Alpha:         r.Alpha,
		Significant:   r.Significant,
		Undefined:     r.Undefined(),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ValidateAlpha enforces 0 < alpha < 1.
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return core.NewFieldError("alpha", core.ErrAlphaRange)
	}
	return nil
}

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05
