package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/domain/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *experiment.Report {
	rateA, rateB := 0.10, 0.12
	return &experiment.Report{
		RunID:     core.RunID("0190b6c0-0000-7000-8000-000000000000"),
		CreatedAt: core.Now(),
		Simulated: true,
		Seed:      42,
		Settings:  experiment.Settings{Alpha: 0.05, Direction: conversion.Greater, Method: conversion.MethodWald},
		A: experiment.VariantResult{
			Name:        "A",
			TrueRate:    &rateA,
			Observation: conversion.Observation{Trials: 10000, Successes: 949},
			Estimate:    conversion.IntervalEstimate{Method: conversion.MethodWald, PointEstimate: 0.0949, Lower: 0.089156, Upper: 0.100644, Alpha: 0.05},
		},
		B: experiment.VariantResult{
			Name:        "B",
			TrueRate:    &rateB,
			Observation: conversion.Observation{Trials: 10000, Successes: 1243},
			Estimate:    conversion.IntervalEstimate{Method: conversion.MethodWald, PointEstimate: 0.1243, Lower: 0.117834, Upper: 0.130766, Alpha: 0.05},
		},
		Test: conversion.TestResult{Direction: conversion.Greater, Statistic: 6.655, PValue: 1.4e-11, PooledRate: 0.1096, StandardError: 0.004418, Alpha: 0.05, Significant: true},
	}
}

func TestTableWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableWriter().WriteExperiment(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "LOWER (95%)")
	assert.Contains(t, out, "0.089156")
	assert.Contains(t, out, "0.130766")
	assert.Contains(t, out, "z=6.6550")
	assert.Contains(t, out, "p=1.400e-11")
	assert.Contains(t, out, "reject H0")
	assert.Equal(t, "text", NewTableWriter().Format())
}

func TestTableWriter_Undefined(t *testing.T) {
	r := sampleReport()
	r.Test.Statistic, r.Test.PValue, r.Test.Significant = math.NaN(), math.NaN(), false

	var buf bytes.Buffer
	require.NoError(t, NewTableWriter().WriteExperiment(&buf, r))
	assert.Contains(t, buf.String(), "z=NaN p=NaN")
	assert.Contains(t, buf.String(), "undefined")
}

func TestTableWriter_Replication(t *testing.T) {
	r := &experiment.ReplicationReport{
		Seed:          1,
		Replications:  100,
		Settings:      experiment.Settings{Alpha: 0.05, Direction: conversion.Greater},
		A:             experiment.VariantSummary{Name: "A", TrueRate: 0.1, Coverage: 0.94},
		B:             experiment.VariantSummary{Name: "B", TrueRate: 0.12, Coverage: 0.96},
		RejectionRate: 0.99,
	}
	var buf bytes.Buffer
	require.NoError(t, NewTableWriter().WriteReplication(&buf, r))
	assert.Contains(t, buf.String(), "COVERAGE")
	assert.Contains(t, buf.String(), "rejection_rate=0.9900")
	assert.Contains(t, buf.String(), "B > A")
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleReport()))
	assert.True(t, strings.HasPrefix(md, "# Conversion experiment"))
	assert.Contains(t, md, "| A | 10000 | 949 | 0.094900 | 0.089156 | 0.100644 | 0.1000 |")
	assert.Contains(t, md, "seed `42`")
	assert.Contains(t, md, "not clipped")
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLWriter().WriteExperiment(&buf, sampleReport()))

	page := buf.String()
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>Conversion experiment")
	assert.Contains(t, page, "0.130766")
}
