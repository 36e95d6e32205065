package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Positional draws the left/right adjacency edges as thin grey arrows.
	Positional bool
	// HideFillers omits filler cells.
	HideFillers bool
}

// ToDOT converts a graph to Graphviz DOT source. The result can be rendered
// with [RenderSVG], [RenderPDF] or [RenderPNG].
func ToDOT(g *qgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	visible := func(p qgraph.Position) bool {
		n, ok := g.Node(p)
		return ok && !(opts.HideFillers && n.IsFiller())
	}

	for col := range g.Width() {
		fmt.Fprintf(&buf, "\n  subgraph col%d {\n    rank=same;\n", col)
		for row := range g.Height() {
			p := qgraph.Pos(row, col)
			if !visible(p) {
				continue
			}
			n, _ := g.Node(p)
			fmt.Fprintf(&buf, "    %s [%s];\n", nodeID(p), strings.Join(fmtAttrs(n), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !visible(e.From) || !visible(e.To) {
			continue
		}
		attrs := edgeAttrs(e, opts)
		if attrs == "" {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", nodeID(e.From), nodeID(e.To), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(p qgraph.Position) string {
	return fmt.Sprintf("n%d_%d", p.Row, p.Col)
}

func fmtAttrs(n qgraph.Node) []string {
	if n.IsFiller() {
		return []string{"label=\"\"", "shape=point", "width=0.08", "color=grey70"}
	}
	label := n.Kind.String()
	if n.Kind.Parametrized() {
		label += "(" + qgraph.FormatAngle(n.Angle) + ")"
	}
	if n.Kind == qgraph.Measure {
		label += fmt.Sprintf(" -> c%d", n.Bit)
	}
	attrs := []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("tooltip=%q", n.Pos.String())}
	if n.Kind.Arity() > 1 {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// edgeAttrs returns the attributes for e, or "" when it is not drawn.
func edgeAttrs(e qgraph.Edge, opts Options) string {
	switch e.Kind {
	case qgraph.Right:
		if opts.Positional {
			return "color=grey60, arrowsize=0.5"
		}
		return "style=invis"
	case qgraph.Left, qgraph.ControlledBy:
		return ""
	case qgraph.Targets:
		return "penwidth=2, constraint=false"
	case qgraph.SwapWith:
		if e.To.Less(e.From) {
			return ""
		}
		return "style=dashed, dir=both, constraint=false"
	case qgraph.CoControl:
		if e.To.Less(e.From) {
			return ""
		}
		return "style=dotted, dir=none, constraint=false"
	}
	panic(fmt.Sprintf("nodelink: unknown edge kind %d", uint8(e.Kind)))
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one whose
// width and height match the viewBox, so the image scales cleanly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
