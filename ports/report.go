package ports

import (
	"io"

	"convtest/domain/experiment"
)

// ReportWriter renders an experiment report in one presentation format.
type ReportWriter interface {
	// Format is the short name used on the command line, e.g. "xlsx".
	Format() string
	WriteExperiment(w io.Writer, report *experiment.Report) error
}
