package api

import (
	"convtest/domain/conversion"
)

// EstimateRequest is the body of POST /v1/estimate
type EstimateRequest struct {
	Trials    int                       `json:"trials"`
	Successes int                       `json:"successes"`
	Alpha     float64                   `json:"alpha"`
	Method    conversion.IntervalMethod `json:"method"`
}

// ZTestRequest is the body of POST /v1/ztest
type ZTestRequest struct {
	A         conversion.Observation `json:"a"`
	B         conversion.Observation `json:"b"`
	Direction conversion.Direction   `json:"direction"`
	Alpha     float64                `json:"alpha"`
}

// ErrorResponse is returned for every non-2xx status
type ErrorResponse struct {
	Error  string                 `json:"error"`
	Code   string                 `json:"code"`
	Result *conversion.TestResult `json:"result,omitempty"`
}
