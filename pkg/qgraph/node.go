package qgraph

import "fmt"

// Position addresses one grid cell: Row is the qubit, Col the time slot.
type Position struct {
	Row int
	Col int
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position { return Position{Row: row, Col: col} }

// Less orders positions row-major.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// Compare is the three-way form of [Position.Less], for slices.SortFunc.
func (p Position) Compare(o Position) int {
	switch {
	case p.Less(o):
		return -1
	case o.Less(p):
		return 1
	}
	return 0
}

// Index returns the arena index row*width+col.
func (p Position) Index(width int) int { return p.Row*width + p.Col }

// String formats the position as "(row,col)".
func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Node is one occupied grid cell. Nodes are plain values keyed by their
// position; a multi-qubit gate is a group of nodes of the same kind joined
// by semantic edges.
//
// Angle is set on single-qubit parametrized nodes and on the target node
// of a CP gate. Bit is [NoBit] unless Kind is [Measure].
type Node struct {
	Kind  Kind
	Pos   Position
	Angle float64
	Bit   int
}

// Filler returns the identity node placed in otherwise empty cells.
func Filler(p Position) Node { return Node{Kind: Identity, Pos: p, Bit: NoBit} }

// IsFiller reports whether n is a placeholder.
func (n Node) IsFiller() bool { return n.Kind == Identity }

// Equal compares kind, position, angle (with tolerance) and bit.
func (n Node) Equal(o Node) bool {
	return n.Pos == o.Pos && n.Similar(o)
}

// Similar is Equal without the position: same kind, angle within tolerance
// and same measured-to bit. It decides which graph nodes can seed a match.
func (n Node) Similar(o Node) bool {
	return n.Kind == o.Kind && n.Bit == o.Bit && AnglesEqual(n.Angle, o.Angle)
}

// At returns a copy of n moved to p.
func (n Node) At(p Position) Node {
	n.Pos = p
	return n
}

// String formats the node for debugging, e.g. "rz(1.5708)@(0,2)".
func (n Node) String() string {
	s := n.Kind.String()
	if n.Kind.Parametrized() && n.Angle != 0 {
		s += fmt.Sprintf("(%.4g)", n.Angle)
	}
	if n.Kind == Measure {
		s += fmt.Sprintf("->c%d", n.Bit)
	}
	return s + "@" + n.Pos.String()
}
