package qgraph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
)

var (
	// ErrOccupied is returned when a node would be placed on, or moved to,
	// a position that already holds a node. No two nodes share a position.
	ErrOccupied = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "position already occupied")

	// ErrNoNode is returned when an operation names a position without a node.
	ErrNoNode = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "no node at position")

	// ErrSamePosition is returned by [Graph.MoveNode] when source and
	// destination are identical.
	ErrSamePosition = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "source and destination are the same position")

	// ErrNegativePosition is returned for positions with a negative row or column.
	ErrNegativePosition = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "position must be non-negative")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when either endpoint
	// holds no node.
	ErrUnknownEndpoint = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "edge references a missing node")

	// ErrEmptyGraph is returned by [Graph.InsertColumn] on a graph without nodes.
	ErrEmptyGraph = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "graph is empty")

	// ErrColumnOutOfRange is returned by [Graph.InsertColumn] for an index
	// outside [0, width].
	ErrColumnOutOfRange = qerrors.New(qerrors.ErrCodeInvalidGraphOp, "column index out of range")
)

// Graph is a position-indexed multigraph of gate nodes.
//
// Nodes are stored by position, edges as an adjacency list keyed by source
// position. Width and height are derived from the occupied positions and
// cached until the next structural change.
//
// The zero value is not usable - use [New]. A Graph is not safe for
// concurrent use; simplification works on private copies made with [Graph.Clone].
type Graph struct {
	nodes map[Position]Node
	out   map[Position][]Edge // keyed by From
	in    map[Position][]Edge // keyed by To
	edges int

	width, height int
	stale         bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[Position]Node),
		out:   make(map[Position][]Edge),
		in:    make(map[Position][]Edge),
	}
}

// Len returns the number of nodes, fillers included.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges, positional ones included.
func (g *Graph) EdgeCount() int { return g.edges }

// Width returns max(column)+1 over occupied positions, 0 for an empty graph.
func (g *Graph) Width() int {
	g.dims()
	return g.width
}

// Height returns max(row)+1 over occupied positions, 0 for an empty graph.
func (g *Graph) Height() int {
	g.dims()
	return g.height
}

func (g *Graph) dims() {
	if !g.stale {
		return
	}
	g.width, g.height = 0, 0
	for p := range g.nodes {
		g.width = max(g.width, p.Col+1)
		g.height = max(g.height, p.Row+1)
	}
	g.stale = false
}

// Node returns the node at p.
func (g *Graph) Node(p Position) (Node, bool) {
	n, ok := g.nodes[p]
	return n, ok
}

// Has reports whether p holds a node.
func (g *Graph) Has(p Position) bool {
	_, ok := g.nodes[p]
	return ok
}

// AddNode inserts n at n.Pos. Returns ErrOccupied if the position holds a
// node already.
func (g *Graph) AddNode(n Node) error {
	if n.Pos.Row < 0 || n.Pos.Col < 0 {
		return fmt.Errorf("add node %s: %w", n.Pos, ErrNegativePosition)
	}
	if _, ok := g.nodes[n.Pos]; ok {
		return fmt.Errorf("add node %s: %w", n.Pos, ErrOccupied)
	}
	g.nodes[n.Pos] = n
	g.stale = true
	return nil
}

// SetNode replaces the node at n.Pos, keeping its edges. Returns ErrNoNode
// if the position is empty.
func (g *Graph) SetNode(n Node) error {
	if _, ok := g.nodes[n.Pos]; !ok {
		return fmt.Errorf("set node %s: %w", n.Pos, ErrNoNode)
	}
	g.nodes[n.Pos] = n
	return nil
}

// RemoveNode deletes the node at p together with every edge that starts or
// ends there.
func (g *Graph) RemoveNode(p Position) error {
	if _, ok := g.nodes[p]; !ok {
		return fmt.Errorf("remove node %s: %w", p, ErrNoNode)
	}
	for _, e := range g.out[p] {
		if e.To != p {
			g.in[e.To] = removeOne(g.in[e.To], e)
		}
	}
	for _, e := range g.in[p] {
		if e.From != p {
			g.out[e.From] = removeOne(g.out[e.From], e)
			g.edges--
		}
	}
	g.edges -= len(g.out[p])
	delete(g.nodes, p)
	delete(g.out, p)
	delete(g.in, p)
	g.stale = true
	return nil
}

// MoveNode relocates the node at from to the empty position to. Every edge
// referencing from, in either direction, is relocated as well. The graph is
// left untouched when an error is returned.
func (g *Graph) MoveNode(from, to Position) error {
	n, ok := g.nodes[from]
	switch {
	case !ok:
		return fmt.Errorf("move %s -> %s: %w", from, to, ErrNoNode)
	case from == to:
		return fmt.Errorf("move %s -> %s: %w", from, to, ErrSamePosition)
	case to.Row < 0 || to.Col < 0:
		return fmt.Errorf("move %s -> %s: %w", from, to, ErrNegativePosition)
	}
	if _, ok := g.nodes[to]; ok {
		return fmt.Errorf("move %s -> %s: %w", from, to, ErrOccupied)
	}

	fix := func(e Edge) Edge {
		if e.From == from {
			e.From = to
		}
		if e.To == from {
			e.To = to
		}
		return e
	}
	outs, ins := g.out[from], g.in[from]
	delete(g.out, from)
	delete(g.in, from)
	movedOut := make([]Edge, len(outs))
	for i, e := range outs {
		movedOut[i] = fix(e)
		if e.To != from {
			replaceOne(g.in[e.To], e, movedOut[i])
		}
	}
	movedIn := make([]Edge, len(ins))
	for i, e := range ins {
		movedIn[i] = fix(e)
		if e.From != from {
			replaceOne(g.out[e.From], e, movedIn[i])
		}
	}
	if len(movedOut) > 0 {
		g.out[to] = movedOut
	}
	if len(movedIn) > 0 {
		g.in[to] = movedIn
	}

	delete(g.nodes, from)
	g.nodes[to] = n.At(to)
	g.stale = true
	return nil
}

// remap rewrites every node key and edge endpoint through f. f must be
// injective on the occupied positions. Edge order within each adjacency
// list is preserved.
func (g *Graph) remap(f func(Position) Position) {
	nodes := make(map[Position]Node, len(g.nodes))
	for p, n := range g.nodes {
		q := f(p)
		nodes[q] = n.At(q)
	}
	move := func(adj map[Position][]Edge) map[Position][]Edge {
		moved := make(map[Position][]Edge, len(adj))
		for p, es := range adj {
			list := make([]Edge, len(es))
			for i, e := range es {
				list[i] = Edge{From: f(e.From), To: f(e.To), Kind: e.Kind}
			}
			moved[f(p)] = list
		}
		return moved
	}
	g.nodes, g.out, g.in = nodes, move(g.out), move(g.in)
	g.stale = true
}

func removeOne(es []Edge, e Edge) []Edge {
	if i := slices.Index(es, e); i >= 0 {
		return slices.Delete(es, i, i+1)
	}
	return es
}

func replaceOne(es []Edge, old, e Edge) {
	if i := slices.Index(es, old); i >= 0 {
		es[i] = e
	}
}

// AddEdge appends e. Both endpoints must hold nodes.
func (g *Graph) AddEdge(e Edge) error {
	if !g.Has(e.From) || !g.Has(e.To) {
		return fmt.Errorf("add edge %s: %w", e, ErrUnknownEndpoint)
	}
	g.addEdge(e)
	return nil
}

func (g *Graph) addEdge(e Edge) {
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	g.edges++
}

// RemoveEdge removes one edge equal to e and reports whether one existed.
func (g *Graph) RemoveEdge(e Edge) bool {
	es := g.out[e.From]
	i := slices.Index(es, e)
	if i < 0 {
		return false
	}
	g.out[e.From] = slices.Delete(es, i, i+1)
	g.in[e.To] = removeOne(g.in[e.To], e)
	g.edges--
	return true
}

// RemoveEdges removes every edge for which drop returns true and returns
// how many were removed.
func (g *Graph) RemoveEdges(drop func(Edge) bool) int {
	prune := func(adj map[Position][]Edge) int {
		removed := 0
		for p, es := range adj {
			n := len(es)
			kept := slices.DeleteFunc(es, drop)
			removed += n - len(kept)
			if len(kept) == 0 {
				delete(adj, p)
			} else {
				adj[p] = kept
			}
		}
		return removed
	}
	removed := prune(g.out)
	prune(g.in)
	g.edges -= removed
	return removed
}

// RemoveEdgesOfKind removes every edge whose kind is one of kinds.
func (g *Graph) RemoveEdgesOfKind(kinds ...EdgeKind) int {
	return g.RemoveEdges(func(e Edge) bool { return slices.Contains(kinds, e.Kind) })
}

// Positions returns every occupied position in row-major order.
func (g *Graph) Positions() []Position {
	return slices.SortedFunc(maps.Keys(g.nodes), Position.Compare)
}

// Nodes returns every node in row-major order.
func (g *Graph) Nodes() []Node {
	ps := g.Positions()
	nodes := make([]Node, len(ps))
	for i, p := range ps {
		nodes[i] = g.nodes[p]
	}
	return nodes
}

// Edges returns every edge, sorted by source, target and kind.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, es := range g.out {
		edges = append(edges, es...)
	}
	slices.SortFunc(edges, Edge.Compare)
	return edges
}

// EdgesFrom returns the outgoing edges of p in insertion order.
func (g *Graph) EdgesFrom(p Position) []Edge { return slices.Clone(g.out[p]) }

// EdgesTo returns the incoming edges of p in insertion order.
func (g *Graph) EdgesTo(p Position) []Edge { return slices.Clone(g.in[p]) }

// NodeEdges returns the outgoing edges of p grouped by kind.
func (g *Graph) NodeEdges(p Position) NodeEdges {
	var ne NodeEdges
	for _, e := range g.out[p] {
		to := e.To
		switch e.Kind {
		case Left:
			ne.Left = &to
		case Right:
			ne.Right = &to
		case SwapWith:
			ne.Swap = &to
		case Targets:
			ne.Targets = append(ne.Targets, to)
		case ControlledBy:
			ne.ControlledBy = append(ne.ControlledBy, to)
		case CoControl:
			ne.CoControls = append(ne.CoControls, to)
		}
	}
	return ne
}

// InsertColumn shifts every node at column >= idx one column to the right
// and fills the freed column with fillers. idx may equal the width, which
// appends a column. Positional edges are recomputed.
func (g *Graph) InsertColumn(idx int) error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("insert column %d: %w", idx, ErrEmptyGraph)
	}
	if idx < 0 || idx > g.Width() {
		return fmt.Errorf("insert column %d: %w", idx, ErrColumnOutOfRange)
	}
	g.remap(func(p Position) Position {
		if p.Col >= idx {
			p.Col++
		}
		return p
	})
	for r := range g.Height() {
		p := Pos(r, idx)
		g.nodes[p] = Filler(p)
	}
	g.stale = true
	g.Connect()
	return nil
}

// Equal reports structural equality: the same node set (angles compared
// with tolerance) and the same edge multiset, independent of insertion order.
func (g *Graph) Equal(o *Graph) bool {
	if len(g.nodes) != len(o.nodes) || g.edges != o.edges {
		return false
	}
	for p, n := range g.nodes {
		m, ok := o.nodes[p]
		if !ok || !n.Equal(m) {
			return false
		}
	}
	return slices.Equal(g.Edges(), o.Edges())
}

// Clone returns a deep, independent copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:  maps.Clone(g.nodes),
		out:    make(map[Position][]Edge, len(g.out)),
		in:     make(map[Position][]Edge, len(g.in)),
		edges:  g.edges,
		width:  g.width,
		height: g.height,
		stale:  g.stale,
	}
	for p, es := range g.out {
		c.out[p] = slices.Clone(es)
	}
	for p, es := range g.in {
		c.in[p] = slices.Clone(es)
	}
	return c
}

// GateCount returns the number of gate applications: non-filler nodes,
// with every multi-qubit group counted once.
func (g *Graph) GateCount() int {
	n := 0
	for p, node := range g.nodes {
		if node.IsFiller() {
			continue
		}
		if g.isGroupLeader(p, node) {
			n++
		}
	}
	return n
}

// isGroupLeader picks one representative node per gate group: the target
// of a controlled gate and the upper half of a swap.
func (g *Graph) isGroupLeader(p Position, node Node) bool {
	ne := g.NodeEdges(p)
	switch {
	case len(ne.Targets) > 0:
		return false
	case ne.Swap != nil:
		return p.Less(*ne.Swap)
	}
	return node.Kind.Controls() == 0 || len(ne.ControlledBy) > 0 || len(ne.CoControls) == 0
}

// FillerCount returns the number of identity nodes.
func (g *Graph) FillerCount() int {
	n := 0
	for _, node := range g.nodes {
		if node.IsFiller() {
			n++
		}
	}
	return n
}

// String renders the grid one row per line, "." for empty cells.
func (g *Graph) String() string {
	var b strings.Builder
	for r := range g.Height() {
		fmt.Fprintf(&b, "q%d:", r)
		for c := range g.Width() {
			b.WriteByte(' ')
			n, ok := g.nodes[Pos(r, c)]
			switch {
			case !ok:
				b.WriteString(".")
			case n.IsFiller():
				b.WriteString("-")
			default:
				b.WriteString(cellLabel(n))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cellLabel(n Node) string {
	s := n.Kind.String()
	if n.Kind.Parametrized() && n.Angle != 0 {
		s += fmt.Sprintf("(%.3g)", n.Angle)
	}
	if n.Kind == Measure {
		s += fmt.Sprintf("->%d", n.Bit)
	}
	return s
}
