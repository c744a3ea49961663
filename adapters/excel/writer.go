package excel

import (
	"fmt"
	"io"
	"math"

	"convtest/domain/experiment"
	apperrors "convtest/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Writer exports experiment reports as xlsx workbooks: an Estimates sheet
// with a column chart of the interval bounds, and a Test sheet.
type Writer struct{}

// NewWriter creates an xlsx writer
func NewWriter() *Writer {
	return &Writer{}
}

// Format returns "xlsx"
func (w *Writer) Format() string { return "xlsx" }

// WriteExperiment builds the workbook and streams it to out.
func (w *Writer) WriteExperiment(out io.Writer, r *experiment.Report) error {
	f, err := w.Build(r)
	if err != nil {
		return apperrors.ExportError(w.Format(), err)
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return apperrors.ExportError(w.Format(), err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Writer) SaveAs(path string, r *experiment.Report) error {
	f, err := w.Build(r)
	if err != nil {
		return apperrors.ExportError(w.Format(), err)
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return apperrors.ExportError(w.Format(), err)
	}
	return nil
}

// Build returns the populated workbook. The caller closes it.
func (w *Writer) Build(r *experiment.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := w.build(f, r); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (w *Writer) build(f *excelize.File, r *experiment.Report) error {
	if err := f.SetSheetName("Sheet1", EstimatesSheet); err != nil {
		return err
	}
	if err := w.writeEstimates(f, r); err != nil {
		return fmt.Errorf("estimates sheet: %w", err)
	}
	if err := w.addChart(f, r); err != nil {
		return fmt.Errorf("estimates chart: %w", err)
	}

	if _, err := f.NewSheet(TestSheet); err != nil {
		return err
	}
	if err := w.writeTest(f, r); err != nil {
		return fmt.Errorf("test sheet: %w", err)
	}
	return nil
}

func (w *Writer) writeEstimates(f *excelize.File, r *experiment.Report) error {
	header := []interface{}{"Variant", "Trials", "Conversions", "Rate", "Lower", "Upper", "Standard error", "True rate"}
	if err := f.SetSheetRow(EstimatesSheet, "A1", &header); err != nil {
		return err
	}

	for i, v := range r.Variants() {
		var trueRate interface{} = ""
		if v.TrueRate != nil {
			trueRate = *v.TrueRate
		}
		row := []interface{}{
			v.Name,
			v.Observation.Trials,
			v.Observation.Successes,
			v.Estimate.PointEstimate,
			v.Estimate.Lower,
			v.Estimate.Upper,
			v.Estimate.StandardError,
			trueRate,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EstimatesSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// addChart plots lower bound, estimate and upper bound per variant.
func (w *Writer) addChart(f *excelize.File, r *experiment.Report) error {
	last := len(r.Variants()) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", EstimatesSheet, last)
	series := make([]excelize.ChartSeries, 0, 3)
	for _, col := range []string{"E", "D", "F"} {
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", EstimatesSheet, col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", EstimatesSheet, col, col, last),
		})
	}

	return f.AddChart(EstimatesSheet, "J2", &excelize.Chart{
		Type:   excelize.Col,
		Series: series,
		Title: []excelize.RichTextRun{
			{Text: fmt.Sprintf("Conversion rate, %g%% %s interval", 100*(1-r.Settings.Alpha), r.Settings.Method)},
		},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

func (w *Writer) writeTest(f *excelize.File, r *experiment.Report) error {
	rows := [][]interface{}{
		{"Run ID", r.RunID.String()},
		{"Created at", r.CreatedAt.String()},
		{"Simulated", r.Simulated},
		{"Seed", r.Seed},
		{"Alpha", r.Settings.Alpha},
		{"Interval method", string(r.Settings.Method)},
		{"Alternative", r.Hypothesis()},
		{"Pooled rate", r.Test.PooledRate},
		{"Standard error", r.Test.StandardError},
		{"z", cellFloat(r.Test.Statistic)},
		{"p-value", cellFloat(r.Test.PValue)},
		{"Significant", r.Test.Significant},
		{"Decision", r.Decision()},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TestSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(TestSheet, "A", "B", 24)
}

// cellFloat writes NaN as text; excelize would otherwise store an invalid
// numeric cell.
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return "NaN"
	}
	return v
}
