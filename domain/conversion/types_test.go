package conversion

import (
	"encoding/json"
	"math"
	"testing"

	"convtest/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationValidate(t *testing.T) {
	cases := []struct {
		name    string
		obs     Observation
		wantErr error
	}{
		{"valid", Observation{Trials: 10, Successes: 3}, nil},
		{"all succeed", Observation{Trials: 10, Successes: 10}, nil},
		{"none succeed", Observation{Trials: 10, Successes: 0}, nil},
		{"zero trials", Observation{Trials: 0, Successes: 0}, core.ErrNonPositiveTrials},
		{"negative successes", Observation{Trials: 10, Successes: -1}, core.ErrSuccessesOutOfRange},
		{"too many successes", Observation{Trials: 10, Successes: 11}, core.ErrSuccessesOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.obs.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, core.IsInvalidArgument(err))
		})
	}
}

func TestObservationRate(t *testing.T) {
	obs, err := NewObservation(10000, 949)
	require.NoError(t, err)
	assert.InDelta(t, 0.0949, obs.Rate(), 1e-12)
	assert.Equal(t, "949/10000", obs.String())
}

func TestVariantValidate(t *testing.T) {
	assert.NoError(t, Variant{Name: "A", Trials: 100, TrueRate: 0}.Validate())
	assert.NoError(t, Variant{Name: "A", Trials: 100, TrueRate: 1}.Validate())

	err := Variant{Name: "B", Trials: 100, TrueRate: 1.2}.Validate()
	assert.ErrorIs(t, err, core.ErrProbabilityRange)
	assert.Contains(t, err.Error(), "B.true_rate")

	assert.ErrorIs(t, Variant{Trials: 100, TrueRate: math.NaN()}.Validate(), core.ErrProbabilityRange)
	assert.ErrorIs(t, Variant{Trials: 0, TrueRate: 0.5}.Validate(), core.ErrNonPositiveTrials)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"greater":   Greater,
		" Less ":    Less,
		"two-sided": TwoSided,
		"two_sided": TwoSided,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("sideways")
	assert.ErrorIs(t, err, core.ErrUnknownDirection)
}

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, Less, Greater.Opposite())
	assert.Equal(t, Greater, Less.Opposite())
	assert.Equal(t, TwoSided, TwoSided.Opposite())
	assert.Equal(t, "B > A", Greater.Hypothesis("A", "B"))
}

func TestParseIntervalMethod(t *testing.T) {
	m, err := ParseIntervalMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodWald, m)

	m, err = ParseIntervalMethod("Wilson")
	require.NoError(t, err)
	assert.Equal(t, MethodWilson, m)

	_, err = ParseIntervalMethod("clopper-pearson")
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}

func TestValidateAlpha(t *testing.T) {
	assert.NoError(t, ValidateAlpha(0.05))
	for _, bad := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		assert.ErrorIs(t, ValidateAlpha(bad), core.ErrAlphaRange, "alpha=%v", bad)
	}
}

func TestIntervalEstimateHelpers(t *testing.T) {
	e := IntervalEstimate{PointEstimate: 0.5, Lower: 0.4, Upper: 0.6, Alpha: 0.05}
	assert.InDelta(t, 0.2, e.Width(), 1e-12)
	assert.InDelta(t, 0.1, e.HalfWidth(), 1e-12)
	assert.InDelta(t, 0.95, e.ConfidenceLevel(), 1e-12)
	assert.True(t, e.Contains(0.4))
	assert.False(t, e.Contains(0.61))
}

func TestTestResultMarshalUndefined(t *testing.T) {
	r := TestResult{Direction: Greater, Statistic: math.NaN(), PValue: math.NaN(), Alpha: 0.05}
	require.True(t, r.Undefined())

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["statistic"])
	assert.Nil(t, decoded["p_value"])
	assert.Equal(t, true, decoded["undefined"])
	assert.Equal(t, "greater", decoded["direction"])
}
