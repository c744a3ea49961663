// Package report renders experiment reports as plain text, markdown and
// HTML.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"convtest/domain/experiment"
)

// TableWriter renders a report as an aligned text table.
type TableWriter struct{}

// NewTableWriter creates a text table writer
func NewTableWriter() *TableWriter {
	return &TableWriter{}
}

// Format returns "text"
func (w *TableWriter) Format() string { return "text" }

// WriteExperiment writes the estimates table followed by the test summary.
func (w *TableWriter) WriteExperiment(out io.Writer, r *experiment.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	level := fmt.Sprintf("%g%%", 100*(1-r.Settings.Alpha))

	fmt.Fprintf(tw, "VARIANT\tTRIALS\tCONVERSIONS\tRATE\tLOWER (%s)\tUPPER (%s)\tTRUE RATE\n", level, level)
	for _, v := range r.Variants() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.6f\t%.6f\t%.6f\t%s\n",
			v.Name, v.Observation.Trials, v.Observation.Successes,
			v.Estimate.PointEstimate, v.Estimate.Lower, v.Estimate.Upper,
			optionalRate(v.TrueRate))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nmethod=%s alternative=%s z=%s p=%s\n%s\n",
		r.Settings.Method, r.Hypothesis(),
		formatStat(r.Test.Statistic), formatP(r.Test.PValue), r.Decision())
	return err
}

// WriteReplication writes a replication study summary.
func (w *TableWriter) WriteReplication(out io.Writer, r *experiment.ReplicationReport) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tTRUE RATE\tMEAN RATE\tSTDDEV\tP05\tMEDIAN\tP95\tMEAN WIDTH\tCOVERAGE")
	for _, s := range []experiment.VariantSummary{r.A, r.B} {
		fmt.Fprintf(tw, "%s\t%.4f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.3f\n",
			s.Name, s.TrueRate, s.MeanRate, s.StdDevRate, s.P05Rate, s.MedianRate, s.P95Rate, s.MeanWidth, s.Coverage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nreplications=%d seed=%d alpha=%g alternative=%s rejection_rate=%.4f undefined=%d\n",
		r.Replications, r.Seed, r.Settings.Alpha, r.Settings.Direction.Hypothesis(r.A.Name, r.B.Name),
		r.RejectionRate, r.UndefinedCount)
	return err
}

func optionalRate(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *p)
}

func formatStat(z float64) string {
	if math.IsNaN(z) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", z)
}

func formatP(p float64) string {
	switch {
	case math.IsNaN(p):
		return "NaN"
	case p < 1e-4:
		return fmt.Sprintf("%.3e", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}
