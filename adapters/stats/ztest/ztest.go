// Package ztest implements the pooled two-proportion z-test.
package ztest

import (
	"fmt"
	"math"

	"convtest/domain/conversion"
	"convtest/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Tester implements ports.ProportionTester.
type Tester struct{}

// NewTester creates a new two-proportion tester
func NewTester() *Tester {
	return &Tester{}
}

// TwoProportion runs the test; see the package-level function.
func (t *Tester) TwoProportion(a, b conversion.Observation, dir conversion.Direction, alpha float64) (conversion.TestResult, error) {
	return TwoProportion(a, b, dir, alpha)
}

// TwoProportion compares variant b against variant a under the null
// hypothesis of equal rates. The statistic is
//
//	z = (p̂b - p̂a) / sqrt(p̄(1-p̄)(1/na + 1/nb)),  p̄ = (ka+kb)/(na+nb)
//
// so a positive z means b converts better. The p-value is Φ(-z) for
// Greater, Φ(z) for Less and 2Φ(-|z|) for TwoSided; Φ(-z) is used for the
// upper tail instead of 1-Φ(z) to keep precision for large z.
//
// When the pooled standard error is zero (both rates 0 or both 1) the
// returned result has NaN Statistic and PValue and the error wraps
// core.ErrUndefined.
func TwoProportion(a, b conversion.Observation, dir conversion.Direction, alpha float64) (conversion.TestResult, error) {
	if err := a.Validate(); err != nil {
		return conversion.TestResult{}, core.NewFieldError("variant_a", err)
	}
	if err := b.Validate(); err != nil {
		return conversion.TestResult{}, core.NewFieldError("variant_b", err)
	}
	if err := conversion.ValidateAlpha(alpha); err != nil {
		return conversion.TestResult{}, err
	}
	if !dir.Valid() {
		return conversion.TestResult{}, fmt.Errorf("%w: %q", core.ErrUnknownDirection, dir)
	}

	na, nb := float64(a.Trials), float64(b.Trials)
	rateA, rateB := a.Rate(), b.Rate()
	pooled := float64(a.Successes+b.Successes) / (na + nb)
	se := math.Sqrt(pooled * (1 - pooled) * (1/na + 1/nb))

	result := conversion.TestResult{
		Direction:     dir,
		PooledRate:    pooled,
		StandardError: se,
		RateA:         rateA,
		RateB:         rateB,
		Difference:    rateB - rateA,
		Alpha:         alpha,
	}

	if se == 0 {
		result.Statistic = math.NaN()
		result.PValue = math.NaN()
		return result, core.ErrZeroStandardError
	}

	z := (rateB - rateA) / se
	result.Statistic = z
	result.PValue = PValue(z, dir)
	result.Significant = result.PValue < alpha
	return result, nil
}

// PValue converts a z statistic into a p-value for the given alternative.
func PValue(z float64, dir conversion.Direction) float64 {
	var p float64
	switch dir {
	case conversion.Greater:
		p = distuv.UnitNormal.CDF(-z)
	case conversion.Less:
		p = distuv.UnitNormal.CDF(z)
	default:
		p = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	}
	return math.Min(1, math.Max(0, p))
}
