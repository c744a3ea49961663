package estimate

import (
	"math"
	"testing"

	"convtest/domain/conversion"
	"convtest/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(k, n int) conversion.Observation {
	return conversion.Observation{Trials: n, Successes: k}
}

func TestWald_KnownScenarios(t *testing.T) {
	cases := []struct {
		name         string
		k, n         int
		point        float64
		lower, upper float64
	}{
		{"variant A", 949, 10000, 0.0949, 0.089156, 0.100644},
		{"variant B", 1243, 10000, 0.1243, 0.117834, 0.130766},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est, err := Wald(obs(tc.k, tc.n), conversion.DefaultAlpha)
			require.NoError(t, err)
			assert.Equal(t, conversion.MethodWald, est.Method)
			assert.InDelta(t, tc.point, est.PointEstimate, 1e-12)
			assert.InDelta(t, tc.lower, est.Lower, 1e-6)
			assert.InDelta(t, tc.upper, est.Upper, 1e-6)
		})
	}
}

func TestCriticalValue(t *testing.T) {
	z, err := CriticalValue(0.05)
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, z, 1e-6)

	z, err = CriticalValue(0.01)
	require.NoError(t, err)
	assert.InDelta(t, 2.575829, z, 1e-6)
}

func TestWald_OrderedAndSymmetric(t *testing.T) {
	for _, n := range []int{1, 2, 10, 37, 1000} {
		for k := 0; k <= n; k += 1 + n/10 {
			for _, alpha := range []float64{0.001, 0.01, 0.05, 0.1, 0.5, 0.99} {
				est, err := Wald(obs(k, n), alpha)
				require.NoError(t, err)

				if !(est.Lower <= est.PointEstimate && est.PointEstimate <= est.Upper) {
					t.Fatalf("k=%d n=%d alpha=%v: bounds out of order %+v", k, n, alpha, est)
				}
				left := est.PointEstimate - est.Lower
				right := est.Upper - est.PointEstimate
				assert.InDelta(t, left, right, 1e-12, "k=%d n=%d alpha=%v", k, n, alpha)
			}
		}
	}
}

func TestWald_SmallerAlphaIsWider(t *testing.T) {
	alphas := []float64{0.5, 0.2, 0.1, 0.05, 0.01, 0.001}
	for _, o := range []conversion.Observation{obs(949, 10000), obs(3, 10), obs(0, 50), obs(50, 50)} {
		prev := -1.0
		for _, alpha := range alphas {
			est, err := Wald(o, alpha)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, est.Width(), prev, "%v alpha=%v", o, alpha)
			prev = est.Width()
		}
	}
}

// TestWald_NotClipped documents that Wald bounds may leave [0,1].
func TestWald_NotClipped(t *testing.T) {
	est, err := Wald(obs(1, 10), 0.05)
	require.NoError(t, err)
	assert.Less(t, est.Lower, 0.0)

	est, err = Wald(obs(0, 10), 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.Lower)
	assert.Equal(t, 0.0, est.Upper)
}

func TestWald_InvalidArguments(t *testing.T) {
	cases := []struct {
		name    string
		o       conversion.Observation
		alpha   float64
		wantErr error
	}{
		{"zero trials", obs(0, 0), 0.05, core.ErrNonPositiveTrials},
		{"negative trials", obs(0, -5), 0.05, core.ErrNonPositiveTrials},
		{"negative successes", obs(-1, 10), 0.05, core.ErrSuccessesOutOfRange},
		{"too many successes", obs(11, 10), 0.05, core.ErrSuccessesOutOfRange},
		{"alpha zero", obs(1, 10), 0, core.ErrAlphaRange},
		{"alpha one", obs(1, 10), 1, core.ErrAlphaRange},
		{"alpha nan", obs(1, 10), math.NaN(), core.ErrAlphaRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Wald(tc.o, tc.alpha)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, core.IsInvalidArgument(err))
		})
	}
}

func TestWilson_BoundsInsideUnitInterval(t *testing.T) {
	for _, o := range []conversion.Observation{obs(0, 10), obs(1, 10), obs(10, 10), obs(949, 10000)} {
		est, err := Wilson(o, 0.05)
		require.NoError(t, err)
		assert.Equal(t, conversion.MethodWilson, est.Method)
		assert.GreaterOrEqual(t, est.Lower, 0.0)
		assert.LessOrEqual(t, est.Upper, 1.0)
		assert.LessOrEqual(t, est.Lower, est.PointEstimate)
		assert.GreaterOrEqual(t, est.Upper, est.PointEstimate)
	}

	// Wilson at k=0, n=10 is roughly [0, 0.2775].
	est, err := Wilson(obs(0, 10), 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.2775, est.Upper, 1e-3)
}

func TestEstimator_Dispatch(t *testing.T) {
	e := NewEstimator()

	est, err := e.Estimate(obs(949, 10000), 0.05, "")
	require.NoError(t, err)
	assert.Equal(t, conversion.MethodWald, est.Method)

	est, err = e.Estimate(obs(949, 10000), 0.05, conversion.MethodWilson)
	require.NoError(t, err)
	assert.Equal(t, conversion.MethodWilson, est.Method)

	_, err = e.Estimate(obs(949, 10000), 0.05, "bootstrap")
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}
