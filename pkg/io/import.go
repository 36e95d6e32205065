package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// ReadJSON decodes a JSON graph from r.
//
// ReadJSON returns an error of code INVALID_FORMAT if:
//   - The JSON is malformed or has unknown fields
//   - A node names an unknown gate or overlaps another node
//   - An edge names an unknown kind or references a missing node
//   - A multi-qubit gate is missing one of its nodes or edges
//   - The declared height or width disagrees with the nodes
//
// The returned graph is filled and independent of r. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*qgraph.Graph, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var data graph
	if err := dec.Decode(&data); err != nil {
		return nil, qerrors.Wrap(qerrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	g, err := decodeGraph(data)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.ErrCodeInvalidFormat, err, "invalid graph")
	}
	return g, nil
}

// Unmarshal decodes a graph produced by [Marshal].
func Unmarshal(data []byte) (*qgraph.Graph, error) {
	return ReadJSON(bytes.NewReader(data))
}

func decodeGraph(data graph) (*qgraph.Graph, error) {
	g := qgraph.New()
	for i, n := range data.Nodes {
		kind, ok := qgraph.ParseKind(n.Gate)
		if !ok {
			return nil, &qerrors.IndexedError{Index: i, Field: "node", Err: fmt.Errorf("unknown gate %q", n.Gate)}
		}
		nd := qgraph.Node{Kind: kind, Pos: qgraph.Pos(n.Row, n.Col), Bit: qgraph.NoBit}
		if n.Angle != nil {
			nd.Angle = *n.Angle
		}
		if n.Bit != nil {
			nd.Bit = *n.Bit
		}
		if kind == qgraph.Measure && nd.Bit < 0 {
			return nil, &qerrors.IndexedError{Index: i, Field: "node", Err: fmt.Errorf("measure at %s needs a bit", nd.Pos)}
		}
		if err := g.AddNode(nd); err != nil {
			return nil, &qerrors.IndexedError{Index: i, Field: "node", Err: err}
		}
	}
	for i, e := range data.Edges {
		kind, ok := qgraph.ParseEdgeKind(e.Kind)
		if !ok {
			return nil, &qerrors.IndexedError{Index: i, Field: "edge", Err: fmt.Errorf("unknown edge kind %q", e.Kind)}
		}
		if kind.Positional() {
			continue
		}
		err := g.AddEdge(qgraph.Edge{
			From: qgraph.Pos(e.From.Row, e.From.Col),
			To:   qgraph.Pos(e.To.Row, e.To.Col),
			Kind: kind,
		})
		if err != nil {
			return nil, &qerrors.IndexedError{Index: i, Field: "edge", Err: err}
		}
	}
	if g.Len() > 0 && (data.Height != g.Height() || data.Width != g.Width()) {
		return nil, fmt.Errorf("declared size %dx%d, nodes span %dx%d", data.Height, data.Width, g.Height(), g.Width())
	}
	g.Fill()

	for _, n := range g.Nodes() {
		if n.IsFiller() {
			continue
		}
		if _, _, err := g.GateAt(n.Pos); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
// It returns the same validation errors as [ReadJSON].
func ImportJSON(path string) (*qgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
