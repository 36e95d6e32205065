package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	format      string
	output      string
	inputFormat string
	positional  bool
	hideFillers bool
	simplify    bool
	rules       string
	scale       float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Draw a circuit graph",
		Long: `Render draws a circuit as a text grid or as a Graphviz node-link diagram
(dot, svg, png, pdf). png and pdf need rsvg-convert on the PATH.

Image formats are written next to the input unless -o is given.`,
		Example: `  qsimplify render bell.qasm
  qsimplify render circuit.json -f svg --hide-fillers
  qsimplify render bell.qasm -f png --simplify -o bell.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return c.runRender(ctx, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", pipeline.RenderText, "render format: text, dot, svg, png, pdf")
	flags.StringVarP(&opts.output, "output", "o", "", "output file")
	flags.StringVar(&opts.inputFormat, "input-format", "", "input format: qasm, json (default: from extension)")
	flags.BoolVar(&opts.positional, "positional", false, "draw left/right adjacency edges")
	flags.BoolVar(&opts.hideFillers, "hide-fillers", false, "omit filler cells")
	flags.BoolVar(&opts.simplify, "simplify", false, "simplify before drawing")
	flags.StringVarP(&opts.rules, "rules", "r", "", "rule document for --simplify")
	flags.Float64Var(&opts.scale, "scale", 2, "png scale factor")

	return cmd
}

// runRender executes the render command.
func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	if err := pipeline.ValidateRenderFormat(opts.format); err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	g, err := c.loadGraph(ctx, path, opts.inputFormat, opts.simplify, opts.rules)
	if err != nil {
		return err
	}

	data, err := pipeline.Render(ctx, g, opts.format, pipeline.RenderOptions{
		Positional:  opts.positional,
		HideFillers: opts.hideFillers,
		Color:       opts.format == pipeline.RenderText && opts.output == "",
		Scale:       opts.scale,
	})
	if err != nil {
		return err
	}
	prog.done("Rendered " + opts.format)
	return c.writeOutput(renderOutputPath(path, opts), data)
}

// loadGraph reads and normalizes a circuit, optionally simplifying it
// through the cached pipeline.
func (c *CLI) loadGraph(ctx context.Context, path, format string, simplified bool, rulesPath string) (*qgraph.Graph, error) {
	input, format, err := c.readInput(path, format)
	if err != nil {
		return nil, err
	}
	if !simplified {
		g, err := pipeline.Decode(input, format)
		if err != nil {
			return nil, err
		}
		if err := clean.Normalize(g); err != nil {
			return nil, err
		}
		return g, nil
	}

	set, err := c.loadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	popts := cfg.PipelineOptions()
	popts.Input = input
	popts.InputFormat = format
	popts.Rules = set
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}

// renderOutputPath picks the output file. Text and dot go to stdout by
// default; image formats are named after the input.
func renderOutputPath(input string, opts renderOpts) string {
	if opts.output != "" {
		return opts.output
	}
	switch opts.format {
	case pipeline.RenderText, pipeline.RenderDOT:
		return ""
	}
	base := "circuit"
	if input != stdinPath {
		base = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	return base + "." + opts.format
}
