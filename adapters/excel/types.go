package excel

import (
	"convtest/domain/conversion"
)

// Sheet names used in exported workbooks
const (
	EstimatesSheet = "Estimates"
	TestSheet      = "Test"
)

// TallyRow is one variant's observed counts read from a spreadsheet
type TallyRow struct {
	Name        string
	Observation conversion.Observation
}

// RawRowData maps header names to trimmed cell values
type RawRowData map[string]string

// TallyData holds the parsed content of a tally file
type TallyData struct {
	Headers []string
	Rows    []RawRowData
}
