package qgraph

// Fill restores density: every unoccupied position in
// [0,Height)x[0,Width) receives a filler node, then positional edges are
// recomputed with [Graph.Connect]. Semantic edges are left untouched.
func (g *Graph) Fill() {
	h, w := g.Height(), g.Width()
	for r := range h {
		for c := range w {
			p := Pos(r, c)
			if _, ok := g.nodes[p]; !ok {
				g.nodes[p] = Filler(p)
			}
		}
	}
	g.Connect()
}

// Connect clears all Left/Right edges and recreates them by scanning the
// grid row-major: two cells are linked, one edge in each direction, iff
// they are horizontally adjacent and both occupied.
func (g *Graph) Connect() {
	g.RemoveEdges(func(e Edge) bool { return e.Kind.Positional() })
	h, w := g.Height(), g.Width()
	for r := range h {
		for c := 0; c+1 < w; c++ {
			a, b := Pos(r, c), Pos(r, c+1)
			if !g.Has(a) || !g.Has(b) {
				continue
			}
			g.addEdge(Edge{From: a, To: b, Kind: Right})
			g.addEdge(Edge{From: b, To: a, Kind: Left})
		}
	}
}

// Dense reports whether every position in [0,Height)x[0,Width) holds a node.
func (g *Graph) Dense() bool {
	return len(g.nodes) == g.Height()*g.Width()
}
