package pipeline

import (
	"context"
	"fmt"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/render/grid"
	"github.com/matzehuels/qsimplify/pkg/render/nodelink"
)

// Render formats.
const (
	RenderDOT  = "dot"
	RenderSVG  = "svg"
	RenderPNG  = "png"
	RenderPDF  = "pdf"
	RenderText = "text"
)

// ValidRenderFormats is the set of supported render formats.
var ValidRenderFormats = map[string]bool{
	RenderDOT:  true,
	RenderSVG:  true,
	RenderPNG:  true,
	RenderPDF:  true,
	RenderText: true,
}

// RenderOptions configures [Render].
type RenderOptions struct {
	// Positional draws left/right adjacency edges in diagrams.
	Positional bool
	// HideFillers omits filler cells from diagrams.
	HideFillers bool
	// Color styles the text grid for a terminal.
	Color bool
	// Scale is the PNG scale factor. Defaults to 2.
	Scale float64
}

// ValidateRenderFormat checks that a render format is valid.
func ValidateRenderFormat(format string) error {
	if !ValidRenderFormats[format] {
		return qerrors.New(qerrors.ErrCodeInvalidFormat, "invalid render format: %q (must be one of: dot, svg, png, pdf, text)", format)
	}
	return nil
}

// Render draws g in the given format. Diagrams go through Graphviz; png
// and pdf additionally need rsvg-convert on the PATH.
func Render(ctx context.Context, g *qgraph.Graph, format string, opts RenderOptions) ([]byte, error) {
	if err := ValidateRenderFormat(format); err != nil {
		return nil, err
	}
	if format == RenderText {
		return []byte(grid.Text(g, grid.Options{Color: opts.Color})), nil
	}

	dot := nodelink.ToDOT(g, nodelink.Options{
		Positional:  opts.Positional,
		HideFillers: opts.HideFillers,
	})

	var (
		data []byte
		err  error
	)
	switch format {
	case RenderDOT:
		return []byte(dot), nil
	case RenderSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case RenderPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = 2
		}
		data, err = nodelink.RenderPNG(ctx, dot, scale)
	case RenderPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
