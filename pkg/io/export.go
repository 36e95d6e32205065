package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

type graph struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Nodes  []node `json:"nodes"`
	Edges  []edge `json:"edges"`
}

type node struct {
	Gate  string   `json:"gate"`
	Row   int      `json:"row"`
	Col   int      `json:"col"`
	Angle *float64 `json:"angle,omitempty"`
	Bit   *int     `json:"bit,omitempty"`
}

type position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type edge struct {
	From position `json:"from"`
	To   position `json:"to"`
	Kind string   `json:"kind"`
}

func encodeGraph(g *qgraph.Graph) graph {
	out := graph{
		Height: g.Height(),
		Width:  g.Width(),
		Nodes:  make([]node, 0, g.Len()),
		Edges:  []edge{},
	}
	for _, n := range g.Nodes() {
		nd := node{Gate: n.Kind.String(), Row: n.Pos.Row, Col: n.Pos.Col}
		if n.Kind.Parametrized() {
			angle := n.Angle
			nd.Angle = &angle
		}
		if n.Kind == qgraph.Measure {
			bit := n.Bit
			nd.Bit = &bit
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, e := range g.Edges() {
		if e.Kind.Positional() {
			continue
		}
		out.Edges = append(out.Edges, edge{
			From: position{e.From.Row, e.From.Col},
			To:   position{e.To.Row, e.To.Col},
			Kind: e.Kind.String(),
		})
	}
	return out
}

// WriteJSON encodes a graph as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(g *qgraph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the JSON encoding of g, as written by [WriteJSON].
func Marshal(g *qgraph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON writes a graph to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *qgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
