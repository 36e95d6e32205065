package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
	"github.com/matzehuels/qsimplify/pkg/render/grid"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

// =============================================================================
// StepsModel - Interactive rewrite stepper
// =============================================================================

// Frame is one state of the circuit in the stepper.
type Frame struct {
	Label string
	Graph *qgraph.Graph
}

// StepsModel is the bubbletea model for paging through traced rewrites.
type StepsModel struct {
	Frames []Frame
	Index  int
	Color  bool
}

// NewStepsModel creates a stepper positioned on the first frame.
func NewStepsModel(frames []Frame) StepsModel {
	return StepsModel{Frames: frames, Color: true}
}

func (m StepsModel) Init() tea.Cmd {
	return nil
}

func (m StepsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	last := len(m.Frames) - 1
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l", "n", " ":
		if m.Index < last {
			m.Index++
		}
	case "left", "h", "p":
		if m.Index > 0 {
			m.Index--
		}
	case "home", "g":
		m.Index = 0
	case "end", "G":
		m.Index = max(last, 0)
	}
	return m, nil
}

func (m StepsModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Rewrite Steps"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ step  home/end jump  q quit"))
	b.WriteString("\n\n")

	if len(m.Frames) == 0 {
		b.WriteString(StyleDim.Render("no frames"))
		b.WriteString("\n")
		return b.String()
	}

	f := m.Frames[m.Index]
	b.WriteString(StyleHighlight.Render(f.Label))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  (%d gates)", f.Graph.GateCount())))
	b.WriteString("\n\n")
	if body := grid.Text(f.Graph, grid.Options{Color: m.Color}); body != "" {
		b.WriteString(body)
	} else {
		b.WriteString(StyleDim.Render("(empty circuit)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Index+1, len(m.Frames))))
	return b.String()
}

// =============================================================================
// Command
// =============================================================================

// stepsCommand creates the steps command.
func (c *CLI) stepsCommand() *cobra.Command {
	var (
		rulesPath   string
		inputFormat string
		iterations  int
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "steps <file|->",
		Short: "Step through every rewrite interactively",
		Long: `Steps simplifies a circuit with tracing enabled and opens a viewer that
pages through the circuit after each rewrite. With --plain every frame
is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			frames, err := c.traceFrames(ctx, args[0], inputFormat, rulesPath, iterations)
			if err != nil {
				return err
			}
			if plain {
				for _, f := range frames {
					fmt.Fprintf(c.Out, "%s\n%s\n", f.Label, grid.Text(f.Graph, grid.Options{}))
				}
				return nil
			}
			_, err = tea.NewProgram(NewStepsModel(frames), tea.WithContext(ctx)).Run()
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&rulesPath, "rules", "r", "", "rule document (default: configured or bundled rules)")
	flags.StringVar(&inputFormat, "input-format", "", "input format: qasm, json (default: from extension)")
	flags.IntVarP(&iterations, "iterations", "n", 0, "passes over the rule set (default: configured)")
	flags.BoolVar(&plain, "plain", false, "print all frames instead of opening the viewer")

	return cmd
}

// traceFrames runs a traced simplification and returns the normalized
// input followed by the graph after each rewrite.
func (c *CLI) traceFrames(ctx context.Context, path, format, rulesPath string, iterations int) ([]Frame, error) {
	input, format, err := c.readInput(path, format)
	if err != nil {
		return nil, err
	}
	set, err := c.loadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	initial, err := pipeline.Decode(input, format)
	if err != nil {
		return nil, err
	}
	if err := clean.Normalize(initial); err != nil {
		return nil, err
	}

	popts := cfg.PipelineOptions()
	popts.Input = input
	popts.InputFormat = format
	popts.Rules = set
	popts.Trace = true
	if iterations > 0 {
		popts.Iterations = iterations
	}

	// Traced runs never touch the cache.
	result, err := pipeline.NewRunner(nil, nil, c.Logger).Execute(ctx, popts)
	if err != nil && (result == nil || !simplify.IsBudgetExceeded(err)) {
		return nil, err
	}
	if err != nil {
		printWarning("Budget exhausted after %d rewrites", len(result.Steps))
	}

	frames := make([]Frame, 0, len(result.Steps)+1)
	frames = append(frames, Frame{Label: "input", Graph: initial})
	for i, step := range result.Steps {
		frames = append(frames, Frame{Label: stepLabel(i+1, step), Graph: step.Graph})
	}
	return frames, nil
}
