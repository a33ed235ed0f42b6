package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/compdb/internal/generator"
)

// progressBarThreshold is the action count below which no bar is drawn.
const progressBarThreshold = 1000

// CLIProgressReporter implements progress reporting with log lines and a progress bar.
type CLIProgressReporter struct {
	logger  *log.Logger
	out     io.Writer
	verbose bool
	bar     *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(logger *log.Logger, out io.Writer, verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		logger:  logger,
		out:     out,
		verbose: verbose,
	}
}

func (c *CLIProgressReporter) OnReadStart(source string) {
	c.logger.Printf("Reading bazel aquery output from %s...", source)
}

func (c *CLIProgressReporter) OnReadComplete(bytes int) {
	if c.verbose {
		c.logger.Printf("Read %d bytes", bytes)
	}
}

func (c *CLIProgressReporter) OnExtractStart(totalActions int) {
	if c.verbose {
		c.logger.Printf("Extracting %d actions", totalActions)
	}
	c.bar = nil
	if totalActions < progressBarThreshold {
		return
	}

	c.bar = progressbar.NewOptions(totalActions,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting actions"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("actions/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnActionExtracted() {
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnWriteStart(destination string) {
	if c.bar != nil {
		c.bar.Finish()
	}
	if c.verbose {
		c.logger.Printf("Writing compilation database to %s", destination)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *generator.Stats) {
	c.logger.Printf("Wrote %d compile commands in %s", stats.Actions, stats.Duration.Round(time.Millisecond))
	if c.verbose {
		c.logger.Printf("  %d with a source file, %d without", stats.WithFile, stats.WithoutFile)
		c.logger.Printf("  %d arguments removed", stats.ArgumentsRemoved)
	}
}
