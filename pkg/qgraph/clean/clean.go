// Package clean brings circuit graphs into canonical form.
//
// Extraction and rewriting leave graphs sparse, jagged or with angles and
// classical bits out of range. [Normalize] restores the canonical form
// every search expects: no empty rows or columns, angles reduced to their
// period, measurement bits numbered 0..k-1, and a dense grid.
package clean

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// Fill makes g dense and recomputes its positional edges.
func Fill(g *qgraph.Graph) { g.Fill() }

// Normalize runs TrimRows, TrimColumns, NormalizeAngles, RenumberBits and
// Fill, in that order. Normalize is idempotent.
func Normalize(g *qgraph.Graph) error {
	if _, err := TrimRows(g); err != nil {
		return err
	}
	if _, err := TrimColumns(g); err != nil {
		return err
	}
	if err := NormalizeAngles(g); err != nil {
		return err
	}
	if err := RenumberBits(g); err != nil {
		return err
	}
	g.Fill()
	return nil
}

// TrimRows removes every row holding only fillers (or nothing) and shifts
// the rows below it up. It returns the number of rows removed.
func TrimRows(g *qgraph.Graph) (int, error) {
	return trim(g,
		g.Height(),
		func(p qgraph.Position) int { return p.Row },
		func(p qgraph.Position, by int) qgraph.Position { return qgraph.Pos(p.Row-by, p.Col) },
	)
}

// TrimColumns removes every column holding only fillers (or nothing) and
// shifts the columns to its right left. It returns the number of columns
// removed.
func TrimColumns(g *qgraph.Graph) (int, error) {
	return trim(g,
		g.Width(),
		func(p qgraph.Position) int { return p.Col },
		func(p qgraph.Position, by int) qgraph.Position { return qgraph.Pos(p.Row, p.Col-by) },
	)
}

// trim drops every all-filler line along one axis, then relocates the
// survivors with MoveNode, nearest line first so every destination is free.
func trim(g *qgraph.Graph, size int, line func(qgraph.Position) int, shift func(qgraph.Position, int) qgraph.Position) (int, error) {
	significant := make([]bool, size)
	for _, n := range g.Nodes() {
		if !n.IsFiller() {
			significant[line(n.Pos)] = true
		}
	}

	removed := 0
	offset := make([]int, size)
	for i, keep := range significant {
		offset[i] = removed
		if !keep {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	positions := g.Positions()
	for _, p := range positions {
		if !significant[line(p)] {
			if err := g.RemoveNode(p); err != nil {
				return 0, err
			}
		}
	}
	slices.SortStableFunc(positions, func(a, b qgraph.Position) int { return cmp.Compare(line(a), line(b)) })
	for _, p := range positions {
		i := line(p)
		if !significant[i] || offset[i] == 0 {
			continue
		}
		if err := g.MoveNode(p, shift(p, offset[i])); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// NormalizeAngles reduces every angle-bearing node modulo its gate's
// period: 4π for RX, RY and RZ, 2π for P and CP. For CP the target node
// carries the angle; its edge pair to the control is recreated.
func NormalizeAngles(g *qgraph.Graph) error {
	for _, n := range g.Nodes() {
		period := n.Kind.Period()
		if period == 0 {
			continue
		}
		if n.Kind == qgraph.CP && len(g.NodeEdges(n.Pos).ControlledBy) == 0 {
			// control half of a CP carries no angle
			continue
		}
		angle := qgraph.NormalizeAngle(n.Angle, period)
		if angle == n.Angle {
			continue
		}
		n.Angle = angle
		if err := g.SetNode(n); err != nil {
			return err
		}
		if n.Kind == qgraph.CP {
			if err := relinkControls(g, n.Pos); err != nil {
				return err
			}
		}
	}
	return nil
}

func relinkControls(g *qgraph.Graph, target qgraph.Position) error {
	for _, c := range g.NodeEdges(target).ControlledBy {
		g.RemoveEdge(qgraph.Edge{From: target, To: c, Kind: qgraph.ControlledBy})
		g.RemoveEdge(qgraph.Edge{From: c, To: target, Kind: qgraph.Targets})
		if err := g.AddEdge(qgraph.Edge{From: c, To: target, Kind: qgraph.Targets}); err != nil {
			return err
		}
		if err := g.AddEdge(qgraph.Edge{From: target, To: c, Kind: qgraph.ControlledBy}); err != nil {
			return err
		}
	}
	return nil
}

// RenumberBits maps measurement bits onto 0..k-1, preserving the relative
// order of the distinct original values.
func RenumberBits(g *qgraph.Graph) error {
	bits := make(map[int]int)
	for _, n := range g.Nodes() {
		if n.Kind == qgraph.Measure {
			bits[n.Bit] = 0
		}
	}
	for i, b := range slices.Sorted(maps.Keys(bits)) {
		bits[b] = i
	}
	for _, n := range g.Nodes() {
		if n.Kind != qgraph.Measure || bits[n.Bit] == n.Bit {
			continue
		}
		n.Bit = bits[n.Bit]
		if err := g.SetNode(n); err != nil {
			return err
		}
	}
	return nil
}
