package experiment

import (
	"math"
	"testing"

	"convtest/domain/conversion"
	"convtest/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestRequestNormalizeAndValidate(t *testing.T) {
	req := Request{
		A: conversion.Variant{Trials: 100, TrueRate: 0.1},
		B: conversion.Variant{Trials: 100, TrueRate: 0.2},
	}.Normalize()

	assert.Equal(t, "A", req.A.Name)
	assert.Equal(t, "B", req.B.Name)
	assert.Equal(t, conversion.DefaultAlpha, req.Alpha)
	assert.Equal(t, conversion.Greater, req.Direction)
	assert.Equal(t, conversion.MethodWald, req.Method)
	assert.NoError(t, req.Validate())

	dup := req
	dup.B.Name = "A"
	assert.True(t, core.IsInvalidArgument(dup.Validate()))

	bad := req
	bad.Alpha = 1
	assert.ErrorIs(t, bad.Validate(), core.ErrAlphaRange)

	bad = req
	bad.Direction = "up"
	assert.ErrorIs(t, bad.Validate(), core.ErrUnknownDirection)
}

func TestAnalysisRequestValidate(t *testing.T) {
	req := AnalysisRequest{
		A: conversion.Observation{Trials: 100, Successes: 5},
		B: conversion.Observation{Trials: 100, Successes: 101},
	}.Normalize()

	err := req.Validate()
	assert.ErrorIs(t, err, core.ErrSuccessesOutOfRange)
	assert.Contains(t, err.Error(), "B")
}

func TestReplicationRequestValidate(t *testing.T) {
	req := ReplicationRequest{
		Request: Request{
			A: conversion.Variant{Trials: 100, TrueRate: 0.1},
			B: conversion.Variant{Trials: 100, TrueRate: 0.1},
		}.Normalize(),
	}
	assert.True(t, core.IsInvalidArgument(req.Validate()))

	req.Replications = 10
	assert.NoError(t, req.Validate())
}

func TestReportDecision(t *testing.T) {
	r := &Report{
		Settings: Settings{Alpha: 0.05, Direction: conversion.Greater},
		A:        VariantResult{Name: "control"},
		B:        VariantResult{Name: "treatment"},
	}

	r.Test = conversion.TestResult{Statistic: 6.6, PValue: 1e-11, Significant: true}
	assert.Contains(t, r.Decision(), "reject H0")
	assert.Contains(t, r.Decision(), "treatment > control")

	r.Test = conversion.TestResult{Statistic: 0.1, PValue: 0.46}
	assert.Contains(t, r.Decision(), "fail to reject")

	r.Test = conversion.TestResult{Statistic: math.NaN(), PValue: math.NaN()}
	assert.Contains(t, r.Decision(), "undefined")
	assert.Len(t, r.Variants(), 2)
}
