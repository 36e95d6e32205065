package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

// simplifyOpts holds the simplify command flags.
type simplifyOpts struct {
	rules           string
	iterations      int
	maxPermutations int
	timeout         time.Duration
	output          string
	inputFormat     string
	outputFormat    string
	noCache         bool
	refresh         bool
	trace           bool
}

// simplifyCommand creates the simplify command.
func (c *CLI) simplifyCommand() *cobra.Command {
	opts := simplifyOpts{}

	cmd := &cobra.Command{
		Use:   "simplify <file|->",
		Short: "Simplify a circuit with rewrite rules",
		Long: `Simplify reads a circuit (OpenQASM 2 or a graph JSON document), applies the
rewrite rules for the configured number of iterations and writes the
simplified circuit.

The input format follows the file extension; use --input-format when
reading standard input. Results are cached by input, rule set and budget.`,
		Example: `  qsimplify simplify bell.qasm
  qsimplify simplify circuit.json -f qasm -o out.qasm
  cat bell.qasm | qsimplify simplify - --input-format qasm -n 5 --trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimplify(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.rules, "rules", "r", "", "rule document (default: configured or bundled rules)")
	flags.IntVarP(&opts.iterations, "iterations", "n", pipeline.DefaultIterations, "passes over the rule set")
	flags.IntVar(&opts.maxPermutations, "max-permutations", 0, "cap on row assignments tried (0 = unlimited)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "wall-time limit (0 = none)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&opts.inputFormat, "input-format", "", "input format: qasm, json (default: from extension)")
	flags.StringVarP(&opts.outputFormat, "format", "f", "", "output format: qasm, json (default: input format)")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite the cached result")
	flags.BoolVar(&opts.trace, "trace", false, "print every rewrite")

	return cmd
}

// runSimplify executes the simplify command.
func (c *CLI) runSimplify(cmd *cobra.Command, path string, opts simplifyOpts) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	input, format, err := c.readInput(path, opts.inputFormat)
	if err != nil {
		return err
	}
	set, err := c.loadRules(opts.rules)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	popts := cfg.PipelineOptions()
	popts.Input = input
	popts.InputFormat = format
	popts.OutputFormat = opts.outputFormat
	popts.Rules = set
	popts.Trace = opts.trace
	popts.Refresh = opts.refresh

	// Flags only override the config when given explicitly.
	flags := cmd.Flags()
	if flags.Changed("iterations") || popts.Iterations == 0 {
		popts.Iterations = opts.iterations
	}
	if flags.Changed("max-permutations") {
		popts.MaxPermutations = opts.maxPermutations
	}
	if flags.Changed("timeout") {
		popts.Timeout = opts.timeout
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Simplifying circuit...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil && (result == nil || !simplify.IsBudgetExceeded(err)) {
		spinner.StopWithError("Simplification failed")
		return err
	}
	spinner.Stop()

	if opts.trace {
		c.printTrace(result.Steps)
	}
	if werr := c.writeOutput(opts.output, result.Output); werr != nil {
		return werr
	}
	printStats(result.Stats.GatesBefore, result.Stats.GatesAfter, result.Stats.Rewrites, result.CacheHit)

	if err != nil {
		printWarning("Budget exhausted; output is the best circuit found so far")
		return err
	}
	return nil
}

// printTrace lists the traced rewrites on the status stream.
func (c *CLI) printTrace(steps []simplify.Step) {
	if len(steps) == 0 {
		printInfo("No rewrites")
		return
	}
	printInfo("%d rewrites", len(steps))
	for i, step := range steps {
		printDetail("%3d  iter %d  %-12s %d gates", i+1, step.Iteration, step.Rule, step.Graph.GateCount())
	}
}

// stepLabel is shared with the steps viewer.
func stepLabel(i int, step simplify.Step) string {
	return fmt.Sprintf("step %d · %s · iteration %d", i, step.Rule, step.Iteration)
}
