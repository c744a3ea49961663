package ports

import (
	"context"

	"convtest/domain/conversion"
)

// CountSampler draws binomial conversion counts.
type CountSampler interface {
	Sample(ctx context.Context, trials int, p float64) (int, error)
	Observe(ctx context.Context, v conversion.Variant) (conversion.Observation, error)
}

// IntervalEstimator turns an observation into a point estimate and
// confidence interval.
type IntervalEstimator interface {
	Estimate(obs conversion.Observation, alpha float64, method conversion.IntervalMethod) (conversion.IntervalEstimate, error)
}

// ProportionTester compares two observations.
type ProportionTester interface {
	TwoProportion(a, b conversion.Observation, dir conversion.Direction, alpha float64) (conversion.TestResult, error)
}

// SamplerFactory builds a sampler whose streams derive from seed.
type SamplerFactory func(seed uint64) CountSampler
