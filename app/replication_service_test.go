package app

import (
	"context"
	"testing"

	"convtest/domain/conversion"
	"convtest/domain/experiment"
	"convtest/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicate_CoverageAndPower(t *testing.T) {
	svc := newService(nil)
	report, err := svc.Replicate(context.Background(), experiment.ReplicationRequest{
		Request:      defaultRequest(),
		Replications: 400,
	})
	require.NoError(t, err)

	assert.Equal(t, 400, report.Replications)
	assert.InDelta(t, 0.10, report.A.MeanRate, 0.002)
	assert.InDelta(t, 0.12, report.B.MeanRate, 0.002)
	assert.LessOrEqual(t, report.A.P05Rate, report.A.MedianRate)
	assert.LessOrEqual(t, report.A.MedianRate, report.A.P95Rate)

	// With n=10000 the Wald interval is close to nominal.
	assert.InDelta(t, 0.95, report.A.Coverage, 0.05)
	assert.InDelta(t, 0.95, report.B.Coverage, 0.05)

	// A 2 point lift at n=10000 per arm is detected almost always.
	assert.Greater(t, report.RejectionRate, 0.95)
	assert.Equal(t, 0, report.UndefinedCount)
}

func TestReplicate_TypeIErrorUnderNull(t *testing.T) {
	svc := newService(nil)
	req := defaultRequest()
	req.B.TrueRate = req.A.TrueRate

	report, err := svc.Replicate(context.Background(), experiment.ReplicationRequest{Request: req, Replications: 400})
	require.NoError(t, err)
	assert.Less(t, report.RejectionRate, 0.12)
}

func TestReplicate_CountsUndefined(t *testing.T) {
	svc := newService(nil)
	req := defaultRequest()
	req.A.TrueRate, req.B.TrueRate = 0, 0

	report, err := svc.Replicate(context.Background(), experiment.ReplicationRequest{Request: req, Replications: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, report.UndefinedCount)
	assert.Equal(t, 0.0, report.RejectionRate)
	assert.Equal(t, 1.0, report.A.Coverage)
}

func TestReplicate_Invalid(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Replicate(context.Background(), experiment.ReplicationRequest{Request: defaultRequest()})
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestReplicate_Cancelled(t *testing.T) {
	svc := newService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Replicate(ctx, experiment.ReplicationRequest{Request: defaultRequest(), Replications: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplicate_SmallRunsSummarize(t *testing.T) {
	svc := newService(nil)
	req := defaultRequest()
	req.Settings.Method = conversion.MethodWilson

	report, err := svc.Replicate(context.Background(), experiment.ReplicationRequest{Request: req, Replications: 1})
	require.NoError(t, err)
	assert.Equal(t, report.A.P05Rate, report.A.P95Rate)
	assert.Equal(t, 0.0, report.A.StdDevRate)
}
