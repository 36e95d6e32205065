// Package grid draws circuit graphs as terminal text, one line per qubit.
//
//	q0: ─H──●─
//	        │
//	q1: ────X─
//
// Controls are drawn as ●, swap halves as ×, and the other node of a
// multi-qubit gate by its target operation. Vertical bars join the rows a
// gate spans. With [Options.Color] set, gates are styled with lipgloss.
package grid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// Options configures the text grid.
type Options struct {
	// Color styles gate labels and connectors for a terminal.
	Color bool
}

var (
	styleGate    = lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Bold(true)
	styleControl = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	styleMeasure = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleWire    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const (
	wire    = "─"
	bar     = "│"
	control = "●"
	cross   = "×"
)

type cell struct {
	label string
	style lipgloss.Style
}

// Text renders g. An empty graph renders as an empty string.
func Text(g *qgraph.Graph, opts Options) string {
	h, w := g.Height(), g.Width()
	if h == 0 || w == 0 {
		return ""
	}

	cells := make([][]cell, h)
	for r := range cells {
		cells[r] = make([]cell, w)
	}
	// spans[c][r] marks a connector between rows r and r+1 in column c.
	spans := make([][]bool, w)
	widths := make([]int, w)

	for c := range w {
		spans[c] = make([]bool, h)
		for r := range h {
			n, ok := g.Node(qgraph.Pos(r, c))
			if !ok || n.IsFiller() {
				continue
			}
			cells[r][c] = label(g, n)
			widths[c] = max(widths[c], lipgloss.Width(cells[r][c].label))
			if _, group, err := g.GateAt(n.Pos); err == nil && group[0] == n.Pos {
				for rr := group[0].Row; rr < group[len(group)-1].Row; rr++ {
					spans[c][rr] = true
				}
			}
		}
		widths[c] = max(widths[c], 1)
	}

	prefix := len(fmt.Sprintf("q%d: ", h-1))
	paint := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	for r := range h {
		fmt.Fprintf(&b, "%-*s", prefix, fmt.Sprintf("q%d:", r))
		for c := range w {
			cl := cells[r][c]
			pad := widths[c] - lipgloss.Width(cl.label)
			b.WriteString(paint(styleWire, wire))
			if cl.label != "" {
				b.WriteString(paint(cl.style, cl.label))
			}
			b.WriteString(paint(styleWire, strings.Repeat(wire, pad+1)))
		}
		b.WriteByte('\n')

		if r == h-1 || !hasSpan(spans, r) {
			continue
		}
		line := strings.Repeat(" ", prefix)
		for c := range w {
			line += " "
			if spans[c][r] {
				line += paint(styleControl, bar) + strings.Repeat(" ", widths[c])
			} else {
				line += strings.Repeat(" ", widths[c]+1)
			}
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func hasSpan(spans [][]bool, row int) bool {
	for _, col := range spans {
		if col[row] {
			return true
		}
	}
	return false
}

func label(g *qgraph.Graph, n qgraph.Node) cell {
	ne := g.NodeEdges(n.Pos)
	switch n.Kind {
	case qgraph.Measure:
		return cell{fmt.Sprintf("M→c%d", n.Bit), styleMeasure}
	case qgraph.Swap:
		return cell{cross, styleControl}
	case qgraph.CX, qgraph.CY, qgraph.CZ, qgraph.CH, qgraph.CP, qgraph.CCX, qgraph.CCZ:
		if len(ne.Targets) > 0 {
			return cell{control, styleControl}
		}
		return cell{targetLabel(n), styleGate}
	}
	return cell{opLabel(n.Kind.String(), n), styleGate}
}

func targetLabel(n qgraph.Node) string {
	switch n.Kind {
	case qgraph.CX, qgraph.CCX:
		return "X"
	case qgraph.CY:
		return "Y"
	case qgraph.CZ, qgraph.CCZ:
		return "Z"
	case qgraph.CH:
		return "H"
	case qgraph.CP:
		return opLabel("p", n)
	}
	panic(fmt.Sprintf("grid: %s has no target label", n.Kind))
}

func opLabel(name string, n qgraph.Node) string {
	s := strings.ToUpper(name)
	if n.Kind.Parametrized() {
		s += "(" + qgraph.FormatAngle(n.Angle) + ")"
	}
	return s
}
