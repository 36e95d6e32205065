package simplify

import (
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// ExtractSubgraph collects a width-column window of g over the given rows.
// rows[i] is the graph row that becomes row i of the result.
//
// Each row is walked rightward from startCol, taking the next significant
// node for every result column. Fillers are skipped where the mask marks
// the cell as significant; elsewhere the filler itself is taken. Extraction
// fails when a row runs out of columns, or when a collected node has a
// semantic edge to a node outside the collection.
//
// On success the result is a filled graph of renumbered nodes and their
// semantic edges, with normalized angles, comparable with a rule pattern.
// The returned mapping binds graph positions to result positions.
func ExtractSubgraph(g *qgraph.Graph, rows []int, startCol, width int, mask rules.Mask) (*qgraph.Graph, Mapping, bool) {
	if startCol < 0 || width <= 0 {
		return nil, nil, false
	}
	w := g.Width()
	m := make(Mapping, len(rows)*width)
	for i, row := range rows {
		col := startCol
		for c := range width {
			for {
				if col >= w {
					return nil, nil, false
				}
				p := qgraph.Pos(row, col)
				col++
				n, ok := g.Node(p)
				if !ok || (n.IsFiller() && mask.At(i, c)) {
					continue
				}
				m[p] = qgraph.Pos(i, c)
				break
			}
		}
	}

	sources := m.Sources()
	for _, p := range sources {
		for _, e := range g.EdgesFrom(p) {
			if e.Kind.Positional() {
				continue
			}
			if _, ok := m[e.To]; !ok {
				return nil, nil, false
			}
		}
	}

	sub := qgraph.New()
	for _, p := range sources {
		n, _ := g.Node(p)
		if err := sub.AddNode(n.At(m[p])); err != nil {
			return nil, nil, false
		}
	}
	for _, p := range sources {
		for _, e := range g.EdgesFrom(p) {
			if e.Kind.Positional() {
				continue
			}
			if err := sub.AddEdge(qgraph.Edge{From: m[e.From], To: m[e.To], Kind: e.Kind}); err != nil {
				return nil, nil, false
			}
		}
	}
	sub.Fill()
	if err := clean.NormalizeAngles(sub); err != nil {
		return nil, nil, false
	}
	return sub, m, true
}
