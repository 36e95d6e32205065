package simplify

import (
	"fmt"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// ErrUnresolvedPosition is returned by [Rewrite] when a replacement node or
// edge lies on a pattern cell the match did not cover.
var ErrUnresolvedPosition = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "replacement position not covered by the match")

// Rewrite replaces the matched cells of g with replacement. m is the
// mapping returned by [Search] for the rule's pattern.
//
// Every matched cell is cleared, replacement nodes are placed on the graph
// cells their pattern cells matched, and the replacement's semantic edges
// are recreated through the same translation. Cells the replacement does
// not cover stay cleared until the final [qgraph.Graph.Fill]. Every
// position is resolved before anything is changed, so a failed rewrite
// leaves g untouched.
func Rewrite(g, replacement *qgraph.Graph, m Mapping) error {
	inv := m.Invert()
	for _, p := range m.Sources() {
		if !g.Has(p) {
			return fmt.Errorf("rewrite: matched %s: %w", p, qgraph.ErrNoNode)
		}
	}
	nodes := replacement.Nodes()
	for _, n := range nodes {
		if _, ok := inv[n.Pos]; !ok {
			return fmt.Errorf("rewrite: replacement node %s: %w", n, ErrUnresolvedPosition)
		}
	}
	var edges []qgraph.Edge
	for _, e := range replacement.Edges() {
		if e.Kind.Positional() {
			continue
		}
		from, okFrom := inv[e.From]
		to, okTo := inv[e.To]
		if !okFrom || !okTo {
			return fmt.Errorf("rewrite: replacement edge %s: %w", e, ErrUnresolvedPosition)
		}
		edges = append(edges, qgraph.Edge{From: from, To: to, Kind: e.Kind})
	}

	for _, p := range m.Sources() {
		if err := g.RemoveNode(p); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		if err := g.AddNode(n.At(inv[n.Pos])); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return err
		}
	}
	g.Fill()
	return nil
}

// ApplyRule rewrites every occurrence of rule in g, one at a time, until
// the pattern no longer matches, and returns the number of rewrites. g is
// modified in place and is not normalized afterwards.
//
// A rewrite that leaves the graph unchanged ends the loop.
func ApplyRule(g *qgraph.Graph, rule *rules.Rule) (int, error) {
	var b budget
	return b.applyRule(g, rule, nil)
}

func (b *budget) applyRule(g *qgraph.Graph, rule *rules.Rule, onRewrite func(Mapping)) (int, error) {
	pattern, replacement, mask := rule.Pattern(), rule.Replacement(), rule.Mask()
	n := 0
	for {
		m, ok, err := b.search(g, pattern, mask)
		if err != nil || !ok {
			return n, err
		}
		before := g.Clone()
		if err := Rewrite(g, replacement, m); err != nil {
			return n, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if g.Equal(before) {
			return n, nil
		}
		n++
		if onRewrite != nil {
			onRewrite(m)
		}
	}
}
