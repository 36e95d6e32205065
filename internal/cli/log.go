// Package cli implements the qsimplify command-line interface.
//
// The commands wrap the simplification pipeline:
//   - simplify: Rewrite a circuit with a rule set and write the result
//   - steps: Page through every traced rewrite in a terminal viewer
//   - render: Draw a circuit as a text grid or Graphviz diagram
//   - rules: List, show and validate rewrite rules
//   - cache: Inspect and clear the result cache
//   - serve: Run the HTTP API
//
// # Output
//
// Command results (circuits, diagrams, tables) go to stdout so they can be
// piped. Status lines, spinners and logs go to stderr. --verbose (-v)
// enables debug logging via charmbracelet/log.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered svg (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
