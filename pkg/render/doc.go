// Package render provides visualizations of circuit graphs.
//
// # Overview
//
// Two renderers share the graph IR:
//
//   - [nodelink]: Graphviz DOT and in-process SVG of nodes and typed edges
//   - [grid]: a terminal text grid, one line per qubit, styled with lipgloss
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/qsimplify/pkg/render/nodelink
// [grid]: github.com/matzehuels/qsimplify/pkg/render/grid
package render
