// Package nodelink renders circuit graphs as node-link diagrams.
//
// # Overview
//
// Every grid cell becomes a Graphviz node laid out left to right by column,
// with one rank per column. Gate nodes are labelled with their kind; fillers
// are drawn as small grey points. Semantic edges are drawn on top of the
// grid: control to target as a bold arrow, swap halves as a dashed line,
// co-controls as a dotted line. The reverse direction of each pair
// (controlled_by, the second swap edge) is implied and not drawn.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Positional: also draw the left/right adjacency edges
//   - HideFillers: leave filler cells out entirely
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
