// Package build assembles circuit graphs gate by gate.
//
// Push places a gate at the first column free on all of its rows, the same
// policy the circuit converter uses, so hand-built graphs and converted
// circuits line up. Put places a gate at an explicit column and is how
// exact-shape rule patterns are written.
//
//	g, err := build.New().
//		Push(qgraph.H.On(0)).
//		Push(qgraph.H.On(0)).
//		Build(false)
package build

import (
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
)

// Builder accumulates gates into a graph. The first placement error sticks:
// later calls are no-ops and [Builder.Build] returns it.
type Builder struct {
	g    *qgraph.Graph
	last map[int]int // last used column per row
	err  error
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{g: qgraph.New(), last: make(map[int]int)}
}

// Push appends gate at the next free column for its rows: the maximum of
// the rows' last used columns, advanced by one if that column holds a gate
// on any of them.
func (b *Builder) Push(gate qgraph.Gate) *Builder {
	if b.err != nil {
		return b
	}
	return b.Put(gate, b.NextColumn(gate.Qubits...))
}

// Put places gate at column col, replacing plain fillers. It fails if any
// cell holds a gate.
func (b *Builder) Put(gate qgraph.Gate, col int) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.g.PlaceGate(gate, col); err != nil {
		b.err = err
		return b
	}
	for _, q := range gate.Qubits {
		b.last[q] = max(b.last[q], col)
	}
	return b
}

// NextColumn returns the column Push would use for a gate on rows.
func (b *Builder) NextColumn(rows ...int) int {
	col := 0
	for _, r := range rows {
		col = max(col, b.last[r])
	}
	for _, r := range rows {
		if n, ok := b.g.Node(qgraph.Pos(r, col)); ok && !n.IsFiller() {
			return col + 1
		}
	}
	return col
}

// Err returns the first placement error, if any.
func (b *Builder) Err() error { return b.err }

// Build returns the assembled graph. With cleanUp set the graph is fully
// normalized (see [clean.Normalize]); otherwise it is only filled, which
// keeps the exact shape the gates were placed in. The builder may keep
// being used afterwards; the returned graph is independent of it.
func (b *Builder) Build(cleanUp bool) (*qgraph.Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := b.g.Clone()
	if !cleanUp {
		g.Fill()
		return g, nil
	}
	if err := clean.Normalize(g); err != nil {
		return nil, err
	}
	return g, nil
}
