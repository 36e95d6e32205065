package qgraph

import "fmt"

// EdgeKind types the relation an edge encodes.
type EdgeKind uint8

const (
	// Left points from a cell to its occupied left neighbour on the same row.
	Left EdgeKind = iota
	// Right points from a cell to its occupied right neighbour on the same row.
	Right
	// SwapWith joins the two halves of a swap, one edge in each direction.
	SwapWith
	// Targets points from a control node to the target it controls.
	Targets
	// ControlledBy points from a target node back to one of its controls.
	ControlledBy
	// CoControl joins the two controls of a doubly controlled gate.
	CoControl
)

// Positional reports whether the edge is derived from grid adjacency.
// Positional edges are recomputed by [Graph.Fill] and never hand-maintained.
func (k EdgeKind) Positional() bool {
	switch k {
	case Left, Right:
		return true
	case SwapWith, Targets, ControlledBy, CoControl:
		return false
	}
	panic(fmt.Sprintf("qgraph: unknown edge kind %d", uint8(k)))
}

// String returns the edge kind name.
func (k EdgeKind) String() string {
	switch k {
	case Left:
		return "left"
	case Right:
		return "right"
	case SwapWith:
		return "swap"
	case Targets:
		return "targets"
	case ControlledBy:
		return "controlled_by"
	case CoControl:
		return "co_control"
	}
	panic(fmt.Sprintf("qgraph: unknown edge kind %d", uint8(k)))
}

// ParseEdgeKind resolves a name produced by [EdgeKind.String].
func ParseEdgeKind(s string) (EdgeKind, bool) {
	switch s {
	case "left":
		return Left, true
	case "right":
		return Right, true
	case "swap":
		return SwapWith, true
	case "targets":
		return Targets, true
	case "controlled_by":
		return ControlledBy, true
	case "co_control":
		return CoControl, true
	}
	return 0, false
}

// Edge is a typed directed relation between two positions. Several edges
// may connect the same ordered pair.
type Edge struct {
	From Position
	To   Position
	Kind EdgeKind
}

// Compare orders edges by source, target, then kind.
func (e Edge) Compare(o Edge) int {
	if c := e.From.Compare(o.From); c != 0 {
		return c
	}
	if c := e.To.Compare(o.To); c != 0 {
		return c
	}
	return int(e.Kind) - int(o.Kind)
}

// String formats the edge as "(r,c) -kind-> (r,c)".
func (e Edge) String() string {
	return fmt.Sprintf("%s -%s-> %s", e.From, e.Kind, e.To)
}

// NodeEdges groups the outgoing edges of one node by relation kind.
type NodeEdges struct {
	Left         *Position
	Right        *Position
	Swap         *Position
	Targets      []Position
	ControlledBy []Position
	CoControls   []Position
}

// Semantic reports whether the node takes part in a multi-qubit gate.
func (ne NodeEdges) Semantic() bool {
	return ne.Swap != nil || len(ne.Targets) > 0 || len(ne.ControlledBy) > 0 || len(ne.CoControls) > 0
}
