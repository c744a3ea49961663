package container

import (
	"fmt"
	"os"

	"convtest/adapters/api"
	"convtest/adapters/excel"
	"convtest/adapters/report"
	"convtest/adapters/rng"
	"convtest/adapters/stats/binomial"
	"convtest/adapters/stats/estimate"
	"convtest/adapters/stats/ztest"
	"convtest/app"
	"convtest/internal"
	"convtest/internal/config"
	"convtest/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Statistics
	Streams   ports.RNGPort
	Estimator ports.IntervalEstimator
	Tester    ports.ProportionTester

	// Services
	Experiments *app.ExperimentService

	// Presentation
	Writers []ports.ReportWriter
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:    cfg,
		Logger:    internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(cfg.LogLevel)),
		Streams:   rng.NewStreamAdapter(),
		Estimator: estimate.NewEstimator(),
		Tester:    ztest.NewTester(),
	}
	c.Experiments = app.NewExperimentService(c.NewSampler, c.Estimator, c.Tester, c.Logger)
	c.Writers = []ports.ReportWriter{
		report.NewTableWriter(),
		report.NewMarkdownWriter(),
		report.NewHTMLWriter(),
		excel.NewWriter(),
	}
	return c, nil
}

// NewSampler returns a fresh count sampler seeded with seed
func (c *Container) NewSampler(seed uint64) ports.CountSampler {
	return binomial.NewGenerator(c.Streams, seed)
}

// Writer returns the registered report writer for format, if any
func (c *Container) Writer(format string) (ports.ReportWriter, bool) {
	for _, w := range c.Writers {
		if w.Format() == format {
			return w, true
		}
	}
	return nil, false
}

// Server builds the JSON API server over the experiment service
func (c *Container) Server() *api.Server {
	return api.NewServer(c.Experiments, c.Logger, c.Config.Server.GinMode, c.Writers...)
}
