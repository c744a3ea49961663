package app

import (
	"context"

	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/domain/experiment"
	"convtest/internal/errors"

	"github.com/montanaflynn/stats"
)

// variantTally collects per-replicate results for one variant.
type variantTally struct {
	rates   []float64
	widths  []float64
	covered int
}

// Replicate repeats the simulated experiment req.Replications times from a
// single seed and reports interval coverage and the test's rejection rate.
// Replicates run sequentially; the sampler streams continue across them.
func (s *ExperimentService) Replicate(ctx context.Context, req experiment.ReplicationRequest) (*experiment.ReplicationReport, error) {
	req.Request = req.Request.Normalize()
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid replication request")
	}

	sampler := s.newSampler(req.Seed)
	settings := req.Settings
	tallyA := &variantTally{rates: make([]float64, 0, req.Replications), widths: make([]float64, 0, req.Replications)}
	tallyB := &variantTally{rates: make([]float64, 0, req.Replications), widths: make([]float64, 0, req.Replications)}
	rejections, undefined := 0, 0

	for i := 0; i < req.Replications; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obsA, err := sampler.Observe(ctx, req.A)
		if err != nil {
			return nil, errors.Wrapf(err, "replicate %d: failed to simulate %s", i, req.A.Name)
		}
		obsB, err := sampler.Observe(ctx, req.B)
		if err != nil {
			return nil, errors.Wrapf(err, "replicate %d: failed to simulate %s", i, req.B.Name)
		}

		if err := s.tally(tallyA, obsA, req.A.TrueRate, settings); err != nil {
			return nil, errors.Wrapf(err, "replicate %d: %s", i, req.A.Name)
		}
		if err := s.tally(tallyB, obsB, req.B.TrueRate, settings); err != nil {
			return nil, errors.Wrapf(err, "replicate %d: %s", i, req.B.Name)
		}

		res, err := s.tester.TwoProportion(obsA, obsB, settings.Direction, settings.Alpha)
		switch {
		case core.IsUndefined(err):
			undefined++
		case err != nil:
			return nil, errors.Wrapf(err, "replicate %d: two-proportion test failed", i)
		case res.Significant:
			rejections++
		}

		if (i+1)%1000 == 0 {
			s.logger.Trace("replication progress %d/%d", i+1, req.Replications)
		}
	}

	summaryA, err := summarize(req.A, tallyA, req.Replications)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to summarize %s", req.A.Name)
	}
	summaryB, err := summarize(req.B, tallyB, req.Replications)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to summarize %s", req.B.Name)
	}

	report := &experiment.ReplicationReport{
		RunID:          core.NewRunID(),
		CreatedAt:      core.Now(),
		Seed:           req.Seed,
		Replications:   req.Replications,
		Settings:       settings,
		A:              summaryA,
		B:              summaryB,
		RejectionRate:  float64(rejections) / float64(req.Replications),
		UndefinedCount: undefined,
	}

	s.logger.Info("replication %s: %d runs, coverage %s=%.3f %s=%.3f, rejection rate %.3f",
		report.RunID, req.Replications, summaryA.Name, summaryA.Coverage, summaryB.Name, summaryB.Coverage, report.RejectionRate)
	return report, nil
}

func (s *ExperimentService) tally(t *variantTally, obs conversion.Observation, trueRate float64, settings experiment.Settings) error {
	est, err := s.estimator.Estimate(obs, settings.Alpha, settings.Method)
	if err != nil {
		return err
	}
	t.rates = append(t.rates, est.PointEstimate)
	t.widths = append(t.widths, est.Width())
	if est.Contains(trueRate) {
		t.covered++
	}
	return nil
}

func summarize(v conversion.Variant, t *variantTally, replications int) (experiment.VariantSummary, error) {
	mean, err := stats.Mean(t.rates)
	if err != nil {
		return experiment.VariantSummary{}, err
	}
	stdDev, err := stats.StandardDeviation(t.rates)
	if err != nil {
		return experiment.VariantSummary{}, err
	}
	p05, err := stats.PercentileNearestRank(t.rates, 5)
	if err != nil {
		return experiment.VariantSummary{}, err
	}
	median, err := stats.Median(t.rates)
	if err != nil {
		return experiment.VariantSummary{}, err
	}
	p95, err := stats.PercentileNearestRank(t.rates, 95)
	if err != nil {
		return experiment.VariantSummary{}, err
	}
	meanWidth, err := stats.Mean(t.widths)
	if err != nil {
		return experiment.VariantSummary{}, err
	}

	return experiment.VariantSummary{
		Name:       v.Name,
		TrueRate:   v.TrueRate,
		MeanRate:   mean,
		StdDevRate: stdDev,
		P05Rate:    p05,
		MedianRate: median,
		P95Rate:    p95,
		MeanWidth:  meanWidth,
		Coverage:   float64(t.covered) / float64(replications),
	}, nil
}
