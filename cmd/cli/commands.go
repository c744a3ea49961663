package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"convtest/adapters/excel"
	"convtest/adapters/report"
	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/domain/experiment"
	"convtest/internal/container"

	"github.com/spf13/cobra"
)

// settingsFlags binds alpha, direction and method.
type settingsFlags struct {
	alpha     float64
	direction string
	method    string
}

func (f *settingsFlags) bind(cmd *cobra.Command, c *container.Container) {
	exp := c.Config.Experiment
	cmd.Flags().Float64Var(&f.alpha, "alpha", exp.Alpha, "Significance level in (0, 1)")
	cmd.Flags().StringVar(&f.direction, "direction", exp.Direction, "Alternative: greater, less or two-sided")
	cmd.Flags().StringVar(&f.method, "method", exp.Method, "Interval method: wald or wilson")
}

func (f *settingsFlags) settings() (experiment.Settings, error) {
	dir, err := conversion.ParseDirection(f.direction)
	if err != nil {
		return experiment.Settings{}, err
	}
	method, err := conversion.ParseIntervalMethod(f.method)
	if err != nil {
		return experiment.Settings{}, err
	}
	return experiment.Settings{Alpha: f.alpha, Direction: dir, Method: method}, nil
}

// outputFlags selects how a single experiment report is written.
type outputFlags struct {
	format   string
	xlsxPath string
	htmlPath string
}

func (f *outputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "text", "Stdout format: text, md, html, xlsx or json")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "Also write an xlsx workbook with a chart to this path")
	cmd.Flags().StringVar(&f.htmlPath, "html", "", "Also write an HTML report to this path")
}

func (f *outputFlags) write(c *container.Container, out io.Writer, r *experiment.Report) error {
	if err := writeReport(c, out, f.format, r); err != nil {
		return err
	}
	if f.xlsxPath != "" {
		if err := excel.NewWriter().SaveAs(f.xlsxPath, r); err != nil {
			return err
		}
		c.Logger.Info("workbook written to %s", f.xlsxPath)
	}
	if f.htmlPath != "" {
		if err := os.WriteFile(f.htmlPath, report.HTML(r), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.htmlPath, err)
		}
		c.Logger.Info("HTML report written to %s", f.htmlPath)
	}
	return nil
}

func writeReport(c *container.Container, out io.Writer, format string, r *experiment.Report) error {
	if format == "json" {
		return writeJSON(out, r)
	}
	w, ok := c.Writer(format)
	if !ok {
		return core.NewInvalidArgumentError("format", fmt.Sprintf("unsupported %q", format))
	}
	return w.WriteExperiment(out, r)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// variantFlags binds the simulation parameters of both variants.
type variantFlags struct {
	nameA, nameB     string
	trialsA, trialsB int
	rateA, rateB     float64
	seed             uint64
}

func (f *variantFlags) bind(cmd *cobra.Command, c *container.Container) {
	exp := c.Config.Experiment
	cmd.Flags().StringVar(&f.nameA, "name-a", exp.NameA, "Name of the control variant")
	cmd.Flags().StringVar(&f.nameB, "name-b", exp.NameB, "Name of the treatment variant")
	cmd.Flags().IntVar(&f.trialsA, "trials-a", exp.TrialsA, "Visitors shown variant A")
	cmd.Flags().IntVar(&f.trialsB, "trials-b", exp.TrialsB, "Visitors shown variant B")
	cmd.Flags().Float64Var(&f.rateA, "rate-a", exp.RateA, "True conversion rate of variant A")
	cmd.Flags().Float64Var(&f.rateB, "rate-b", exp.RateB, "True conversion rate of variant B")
	cmd.Flags().Uint64Var(&f.seed, "seed", exp.Seed, "Random seed")
}

func (f *variantFlags) request(settings experiment.Settings) experiment.Request {
	return experiment.Request{
		A:        conversion.Variant{Name: f.nameA, Trials: f.trialsA, TrueRate: f.rateA},
		B:        conversion.Variant{Name: f.nameB, Trials: f.trialsB, TrueRate: f.rateB},
		Seed:     f.seed,
		Settings: settings,
	}
}

func newRunCmd(c *container.Container) *cobra.Command {
	var variants variantFlags
	var sf settingsFlags
	var of outputFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one experiment and report estimates and the z-test",
		Long: `Simulate visitor conversions for two variants, estimate each rate with a
confidence interval and test whether B converts better than A.

Example: convtest run --trials-a 10000 --rate-a 0.10 --trials-b 10000 --rate-b 0.12 --seed 42 --xlsx out.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.settings()
			if err != nil {
				return err
			}
			r, err := c.Experiments.Run(cmd.Context(), variants.request(settings))
			if err != nil {
				return err
			}
			return of.write(c, cmd.OutOrStdout(), r)
		},
	}

	variants.bind(cmd, c)
	sf.bind(cmd, c)
	of.bind(cmd)
	return cmd
}

func newEstimateCmd(c *container.Container) *cobra.Command {
	var trials, successes int
	var alpha float64
	var method string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Confidence interval for one observed conversion count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := conversion.ParseIntervalMethod(method)
			if err != nil {
				return err
			}
			est, err := c.Experiments.Estimate(conversion.Observation{Trials: trials, Successes: successes}, alpha, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %g%% interval for %d/%d: %.6f [%.6f, %.6f]\n",
				est.Method, 100*est.ConfidenceLevel(), successes, trials, est.PointEstimate, est.Lower, est.Upper)
			return nil
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 0, "Number of visitors")
	cmd.Flags().IntVar(&successes, "successes", 0, "Number of conversions")
	cmd.Flags().Float64Var(&alpha, "alpha", c.Config.Experiment.Alpha, "Significance level in (0, 1)")
	cmd.Flags().StringVar(&method, "method", c.Config.Experiment.Method, "Interval method: wald or wilson")
	_ = cmd.MarkFlagRequired("trials")
	_ = cmd.MarkFlagRequired("successes")
	return cmd
}

func newTestCmd(c *container.Container) *cobra.Command {
	var a, b conversion.Observation
	var sf settingsFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Pooled two-proportion z-test on observed counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.settings()
			if err != nil {
				return err
			}
			res, err := c.Experiments.Test(a, b, settings.Direction, settings.Alpha)
			if err != nil && !core.IsUndefined(err) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "H1: %s  z=%.4f  p=%.6g  significant=%t\n",
				settings.Direction.Hypothesis("A", "B"), res.Statistic, res.PValue, res.Significant)
			return err
		},
	}

	cmd.Flags().IntVar(&a.Trials, "trials-a", 0, "Visitors shown variant A")
	cmd.Flags().IntVar(&a.Successes, "successes-a", 0, "Conversions for variant A")
	cmd.Flags().IntVar(&b.Trials, "trials-b", 0, "Visitors shown variant B")
	cmd.Flags().IntVar(&b.Successes, "successes-b", 0, "Conversions for variant B")
	sf.bind(cmd, c)
	for _, name := range []string{"trials-a", "successes-a", "trials-b", "successes-b"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAnalyzeCmd(c *container.Container) *cobra.Command {
	var file, nameA, nameB string
	var sf settingsFlags
	var of outputFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate and test counts read from a CSV or xlsx tally file",
		Long: `Read per-variant tallies from a CSV or xlsx file with a header row naming
the variant, trials and conversions columns, then estimate and test them.

Example: convtest analyze --file tallies.csv --name-a control --name-b treatment`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.settings()
			if err != nil {
				return err
			}
			tallies, err := excel.NewDataReader(file, c.Logger).ReadTallies()
			if err != nil {
				return err
			}
			req, err := analysisRequest(tallies, nameA, nameB)
			if err != nil {
				return err
			}
			req.Settings = settings

			r, err := c.Experiments.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			return of.write(c, cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or xlsx tally file")
	cmd.Flags().StringVar(&nameA, "name-a", "", "Row used as variant A (default: first row)")
	cmd.Flags().StringVar(&nameB, "name-b", "", "Row used as variant B (default: second row)")
	_ = cmd.MarkFlagRequired("file")
	sf.bind(cmd, c)
	of.bind(cmd)
	return cmd
}

// analysisRequest picks the two variants to compare from the tally rows.
func analysisRequest(tallies []excel.TallyRow, nameA, nameB string) (experiment.AnalysisRequest, error) {
	if nameA == "" && nameB == "" {
		if len(tallies) != 2 {
			return experiment.AnalysisRequest{}, core.NewInvalidArgumentError("file",
				fmt.Sprintf("has %d variants; choose two with --name-a and --name-b", len(tallies)))
		}
		return experiment.AnalysisRequest{
			NameA: tallies[0].Name, A: tallies[0].Observation,
			NameB: tallies[1].Name, B: tallies[1].Observation,
		}, nil
	}

	a, err := findTally(tallies, nameA)
	if err != nil {
		return experiment.AnalysisRequest{}, err
	}
	b, err := findTally(tallies, nameB)
	if err != nil {
		return experiment.AnalysisRequest{}, err
	}
	return experiment.AnalysisRequest{NameA: a.Name, A: a.Observation, NameB: b.Name, B: b.Observation}, nil
}

func findTally(tallies []excel.TallyRow, name string) (excel.TallyRow, error) {
	for _, t := range tallies {
		if t.Name == name {
			return t, nil
		}
	}
	return excel.TallyRow{}, core.NewInvalidArgumentError("variant", fmt.Sprintf("%q not found in file", name))
}

func newReplicateCmd(c *container.Container) *cobra.Command {
	var variants variantFlags
	var sf settingsFlags
	var replications int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Repeat the simulated experiment to measure coverage and power",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.settings()
			if err != nil {
				return err
			}
			r, err := c.Experiments.Replicate(cmd.Context(), experiment.ReplicationRequest{
				Request:      variants.request(settings),
				Replications: replications,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return report.NewTableWriter().WriteReplication(cmd.OutOrStdout(), r)
		},
	}

	variants.bind(cmd, c)
	sf.bind(cmd, c)
	cmd.Flags().IntVar(&replications, "replications", c.Config.Experiment.Replications, "Number of simulated experiments")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newServeCmd(c *container.Container) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Server().Start(":" + port)
		},
	}

	cmd.Flags().StringVar(&port, "port", c.Config.Server.Port, "Port to listen on")
	return cmd
}
