// Package estimate builds point estimates and confidence intervals for a
// single conversion rate.
//
// The default is the Wald interval p ± z·sqrt(p(1-p)/n). It is symmetric,
// is not clipped to [0,1], and is known to undercover when n is small or p
// is near 0 or 1. That behavior is kept as an accepted approximation; the
// Wilson score interval is available only when asked for explicitly.
package estimate

import (
	"fmt"
	"math"

	"convtest/domain/conversion"
	"convtest/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Estimator implements ports.IntervalEstimator.
type Estimator struct{}

// NewEstimator creates a new interval estimator
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate dispatches on method; an empty method means Wald.
func (e *Estimator) Estimate(obs conversion.Observation, alpha float64, method conversion.IntervalMethod) (conversion.IntervalEstimate, error) {
	switch method {
	case "", conversion.MethodWald:
		return Wald(obs, alpha)
	case conversion.MethodWilson:
		return Wilson(obs, alpha)
	}
	return conversion.IntervalEstimate{}, fmt.Errorf("%w: %q", core.ErrUnknownMethod, method)
}

// CriticalValue returns the two-sided standard normal critical value
// z = Φ⁻¹(1 - alpha/2).
func CriticalValue(alpha float64) (float64, error) {
	if err := conversion.ValidateAlpha(alpha); err != nil {
		return 0, err
	}
	return distuv.UnitNormal.Quantile(1 - alpha/2), nil
}

// Wald computes the Wald interval for k successes out of n trials.
func Wald(obs conversion.Observation, alpha float64) (conversion.IntervalEstimate, error) {
	if err := obs.Validate(); err != nil {
		return conversion.IntervalEstimate{}, err
	}
	z, err := CriticalValue(alpha)
	if err != nil {
		return conversion.IntervalEstimate{}, err
	}

	p := obs.Rate()
	se := math.Sqrt(p * (1 - p) / float64(obs.Trials))
	half := z * se

	return conversion.IntervalEstimate{
		Method:        conversion.MethodWald,
		PointEstimate: p,
		StandardError: se,
		Lower:         p - half,
		Upper:         p + half,
		Alpha:         alpha,
	}, nil
}

// Wilson computes the Wilson score interval. Unlike Wald it stays inside
// [0,1] and is not centered on the point estimate.
func Wilson(obs conversion.Observation, alpha float64) (conversion.IntervalEstimate, error) {
	if err := obs.Validate(); err != nil {
		return conversion.IntervalEstimate{}, err
	}
	z, err := CriticalValue(alpha)
	if err != nil {
		return conversion.IntervalEstimate{}, err
	}

	n := float64(obs.Trials)
	p := obs.Rate()
	z2 := z * z
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	half := z / denom * math.Sqrt(p*(1-p)/n+z2/(4*n*n))

	// Rounding can push the bounds past p or [0,1] at k=0 or k=n.
	lower := math.Max(0, math.Min(center-half, p))
	upper := math.Min(1, math.Max(center+half, p))

	return conversion.IntervalEstimate{
		Method:        conversion.MethodWilson,
		PointEstimate: p,
		StandardError: math.Sqrt(p * (1 - p) / n),
		Lower:         lower,
		Upper:         upper,
		Alpha:         alpha,
	}, nil
}
