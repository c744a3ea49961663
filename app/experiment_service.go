package app

import (
	"context"

	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/domain/experiment"
	"convtest/internal"
	"convtest/internal/errors"
	"convtest/ports"
)

// ExperimentService runs the generate → estimate → test pipeline
type ExperimentService struct {
	newSampler ports.SamplerFactory
	estimator  ports.IntervalEstimator
	tester     ports.ProportionTester
	logger     *internal.Logger
}

// NewExperimentService creates an experiment service
func NewExperimentService(newSampler ports.SamplerFactory, estimator ports.IntervalEstimator, tester ports.ProportionTester, logger *internal.Logger) *ExperimentService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExperimentService{
		newSampler: newSampler,
		estimator:  estimator,
		tester:     tester,
		logger:     logger,
	}
}

// Run simulates both variants from req.Seed, then estimates and tests them.
// An undefined test statistic does not fail the run; the report carries
// the NaN result instead.
func (s *ExperimentService) Run(ctx context.Context, req experiment.Request) (*experiment.Report, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid experiment request")
	}

	sampler := s.newSampler(req.Seed)
	obsA, err := sampler.Observe(ctx, req.A)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to simulate variant %s", req.A.Name)
	}
	obsB, err := sampler.Observe(ctx, req.B)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to simulate variant %s", req.B.Name)
	}
	s.logger.Debug("simulated %s=%s %s=%s (seed %d)", req.A.Name, obsA, req.B.Name, obsB, req.Seed)

	report, err := s.evaluate(req.A.Name, req.B.Name, obsA, obsB, req.Settings)
	if err != nil {
		return nil, err
	}
	report.Simulated = true
	report.Seed = req.Seed
	report.A.TrueRate = floatPtr(req.A.TrueRate)
	report.B.TrueRate = floatPtr(req.B.TrueRate)

	s.logger.Info("experiment %s: z=%.4f p=%.4g %s", report.RunID, report.Test.Statistic, report.Test.PValue, report.Decision())
	return report, nil
}

// Analyze estimates and tests counts that were observed elsewhere.
func (s *ExperimentService) Analyze(ctx context.Context, req experiment.AnalysisRequest) (*experiment.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid analysis request")
	}

	report, err := s.evaluate(req.NameA, req.NameB, req.A, req.B, req.Settings)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analysis %s: z=%.4f p=%.4g %s", report.RunID, report.Test.Statistic, report.Test.PValue, report.Decision())
	return report, nil
}

// Estimate exposes the estimator for a single observation.
func (s *ExperimentService) Estimate(obs conversion.Observation, alpha float64, method conversion.IntervalMethod) (conversion.IntervalEstimate, error) {
	est, err := s.estimator.Estimate(obs, alpha, method)
	if err != nil {
		return est, errors.Wrap(err, "failed to estimate interval")
	}
	return est, nil
}

// Test exposes the tester. The result is returned together with an
// UNDEFINED error when the statistic cannot be computed.
func (s *ExperimentService) Test(a, b conversion.Observation, dir conversion.Direction, alpha float64) (conversion.TestResult, error) {
	res, err := s.tester.TwoProportion(a, b, dir, alpha)
	if err != nil {
		return res, errors.Wrap(err, "two-proportion test failed")
	}
	return res, nil
}

func (s *ExperimentService) evaluate(nameA, nameB string, obsA, obsB conversion.Observation, settings experiment.Settings) (*experiment.Report, error) {
	estA, err := s.estimator.Estimate(obsA, settings.Alpha, settings.Method)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to estimate variant %s", nameA)
	}
	estB, err := s.estimator.Estimate(obsB, settings.Alpha, settings.Method)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to estimate variant %s", nameB)
	}

	test, err := s.tester.TwoProportion(obsA, obsB, settings.Direction, settings.Alpha)
	if err != nil {
		if !core.IsUndefined(err) {
			return nil, errors.Wrap(err, "two-proportion test failed")
		}
		s.logger.Warn("test %s vs %s undefined: %v", nameA, nameB, err)
	}

	return &experiment.Report{
		RunID:     core.NewRunID(),
		CreatedAt: core.Now(),
		Settings:  settings,
		A:         experiment.VariantResult{Name: nameA, Observation: obsA, Estimate: estA},
		B:         experiment.VariantResult{Name: nameB, Observation: obsB, Estimate: estB},
		Test:      test,
	}, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
