package report

import (
	"bytes"
	"fmt"
	"io"

	"convtest/domain/conversion"
	"convtest/domain/experiment"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownWriter renders a report as a markdown document.
type MarkdownWriter struct{}

// NewMarkdownWriter creates a markdown writer
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Format returns "md"
func (w *MarkdownWriter) Format() string { return "md" }

// WriteExperiment writes the markdown source of the report.
func (w *MarkdownWriter) WriteExperiment(out io.Writer, r *experiment.Report) error {
	_, err := out.Write(Markdown(r))
	return err
}

// Markdown builds the markdown source for a report.
func Markdown(r *experiment.Report) []byte {
	var b bytes.Buffer
	level := 100 * (1 - r.Settings.Alpha)

	fmt.Fprintf(&b, "# Conversion experiment %s\n\n", r.RunID)
	if r.Simulated {
		fmt.Fprintf(&b, "Simulated with seed `%d` at %s.\n\n", r.Seed, r.CreatedAt)
	} else {
		fmt.Fprintf(&b, "Observed counts analyzed at %s.\n\n", r.CreatedAt)
	}

	fmt.Fprintf(&b, "## Estimates (%g%% %s interval)\n\n", level, r.Settings.Method)
	b.WriteString("| Variant | Trials | Conversions | Rate | Lower | Upper | True rate |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, v := range r.Variants() {
		fmt.Fprintf(&b, "| %s | %d | %d | %.6f | %.6f | %.6f | %s |\n",
			v.Name, v.Observation.Trials, v.Observation.Successes,
			v.Estimate.PointEstimate, v.Estimate.Lower, v.Estimate.Upper, optionalRate(v.TrueRate))
	}

	b.WriteString("\n## Two-proportion z-test\n\n")
	fmt.Fprintf(&b, "- Alternative: **%s**\n", r.Hypothesis())
	fmt.Fprintf(&b, "- Pooled rate: %.6f\n", r.Test.PooledRate)
	fmt.Fprintf(&b, "- Standard error: %.6f\n", r.Test.StandardError)
	fmt.Fprintf(&b, "- z: %s\n", formatStat(r.Test.Statistic))
	fmt.Fprintf(&b, "- p-value: %s\n", formatP(r.Test.PValue))
	fmt.Fprintf(&b, "\n> %s\n", r.Decision())

	if r.Settings.Method == conversion.MethodWald {
		b.WriteString("\nWald intervals are not clipped to [0, 1] and undercover for small samples or rates near 0 or 1.\n")
	}
	return b.Bytes()
}

// HTMLWriter renders a report as a standalone HTML page.
type HTMLWriter struct{}

// NewHTMLWriter creates an HTML writer
func NewHTMLWriter() *HTMLWriter {
	return &HTMLWriter{}
}

// Format returns "html"
func (w *HTMLWriter) Format() string { return "html" }

// WriteExperiment converts the markdown report to a complete HTML page.
func (w *HTMLWriter) WriteExperiment(out io.Writer, r *experiment.Report) error {
	_, err := out.Write(HTML(r))
	return err
}

// HTML renders the report markdown with gomarkdown. A parser is stateful,
// so one is built per call.
func HTML(r *experiment.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("Conversion experiment %s", r.RunID),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(Markdown(r), p, renderer)
}
