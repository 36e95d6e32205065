package simplify

import (
	"maps"
	"slices"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// Mapping binds matched graph positions to pattern positions. It is a
// bijection between the collected graph cells and the pattern cells they
// matched.
type Mapping map[qgraph.Position]qgraph.Position

// Invert returns the pattern-to-graph direction.
func (m Mapping) Invert() Mapping {
	inv := make(Mapping, len(m))
	for g, p := range m {
		inv[p] = g
	}
	return inv
}

// Sources returns the mapped keys in row-major order.
func (m Mapping) Sources() []qgraph.Position {
	return slices.SortedFunc(maps.Keys(m), qgraph.Position.Compare)
}

// Clone returns an independent copy.
func (m Mapping) Clone() Mapping { return maps.Clone(m) }
