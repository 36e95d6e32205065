package qgraph

import (
	"fmt"
	"slices"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
)

// ErrMalformedGroup is returned by [Graph.GateAt] when the semantic edges
// around a node do not describe a complete gate of its kind.
var ErrMalformedGroup = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "malformed gate group")

// PlaceGate adds the nodes of gate at column col together with the
// semantic edges joining them. Every cell must be free or hold a filler;
// fillers are replaced. On error nothing is added. Positional edges are
// not touched - call [Graph.Fill] when done placing.
func (g *Graph) PlaceGate(gate Gate, col int) error {
	if err := gate.Validate(); err != nil {
		return qerrors.Wrap(qerrors.ErrCodeInvalidGraphOp, err, "place gate")
	}
	if col < 0 {
		return fmt.Errorf("place %s at column %d: %w", gate, col, ErrNegativePosition)
	}
	for _, q := range gate.Qubits {
		if p := Pos(q, col); !g.replaceable(p) {
			return fmt.Errorf("place %s at %s: %w", gate, p, ErrOccupied)
		}
	}

	at := func(i int) Position { return Pos(gate.Qubits[i], col) }
	node := func(i int) Node { return Node{Kind: gate.Kind, Pos: at(i), Bit: NoBit} }
	link := func(a, b Position, ab, ba EdgeKind) {
		g.addEdge(Edge{From: a, To: b, Kind: ab})
		g.addEdge(Edge{From: b, To: a, Kind: ba})
	}

	switch gate.Kind {
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg:
		g.nodes[at(0)] = node(0)
	case RX, RY, RZ, P:
		n := node(0)
		n.Angle = gate.Angle
		g.nodes[n.Pos] = n
	case Measure:
		n := node(0)
		n.Bit = gate.Bit
		g.nodes[n.Pos] = n
	case CX, CY, CZ, CH, CP:
		c, t := node(0), node(1)
		if gate.Kind == CP {
			t.Angle = gate.Angle
		}
		g.nodes[c.Pos], g.nodes[t.Pos] = c, t
		link(c.Pos, t.Pos, Targets, ControlledBy)
	case Swap:
		a, b := node(0), node(1)
		g.nodes[a.Pos], g.nodes[b.Pos] = a, b
		link(a.Pos, b.Pos, SwapWith, SwapWith)
	case CCX, CCZ:
		c1, c2, t := node(0), node(1), node(2)
		g.nodes[c1.Pos], g.nodes[c2.Pos], g.nodes[t.Pos] = c1, c2, t
		link(c1.Pos, t.Pos, Targets, ControlledBy)
		link(c2.Pos, t.Pos, Targets, ControlledBy)
		link(c1.Pos, c2.Pos, CoControl, CoControl)
	default:
		panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(gate.Kind)))
	}
	g.stale = true
	return nil
}

// replaceable reports whether p is free or holds a filler outside any
// multi-qubit group.
func (g *Graph) replaceable(p Position) bool {
	n, ok := g.nodes[p]
	if !ok {
		return true
	}
	return n.IsFiller() && !g.NodeEdges(p).Semantic()
}

// GateAt reconstructs the gate the node at p belongs to and returns it with
// the positions of every node in the group, sorted row-major. Controls are
// reported in ascending row order.
func (g *Graph) GateAt(p Position) (Gate, []Position, error) {
	n, ok := g.nodes[p]
	if !ok {
		return Gate{}, nil, fmt.Errorf("gate at %s: %w", p, ErrNoNode)
	}
	malformed := func() (Gate, []Position, error) {
		return Gate{}, nil, fmt.Errorf("%s at %s: %w", n.Kind, p, ErrMalformedGroup)
	}

	switch n.Kind {
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg, RX, RY, RZ, P, Measure:
		gate := n.Kind.On(p.Row)
		gate.Angle, gate.Bit = n.Angle, n.Bit
		return gate, []Position{p}, nil

	case Swap:
		partner := g.NodeEdges(p).Swap
		if partner == nil {
			return malformed()
		}
		a, b := p, *partner
		if b.Less(a) {
			a, b = b, a
		}
		return Swap.On(a.Row, b.Row), []Position{a, b}, nil

	case CX, CY, CZ, CH, CP, CCX, CCZ:
		target := p
		if ts := g.NodeEdges(p).Targets; len(ts) > 0 {
			target = ts[0]
		}
		tn, ok := g.nodes[target]
		if !ok || tn.Kind != n.Kind {
			return malformed()
		}
		controls := slices.Clone(g.NodeEdges(target).ControlledBy)
		if len(controls) != n.Kind.Controls() {
			return malformed()
		}
		slices.SortFunc(controls, Position.Compare)
		qubits := make([]int, 0, len(controls)+1)
		for _, c := range controls {
			if c.Col != target.Col {
				return malformed()
			}
			qubits = append(qubits, c.Row)
		}
		gate := n.Kind.On(append(qubits, target.Row)...).WithAngle(tn.Angle)
		group := append(controls, target)
		slices.SortFunc(group, Position.Compare)
		return gate, group, nil
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(n.Kind)))
}
