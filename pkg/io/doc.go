// Package io provides JSON import and export for circuit graphs.
//
// # Overview
//
// The format is the graph IR as data: every node with its grid position and
// every semantic edge. It is what the simplify pipeline caches, what the
// HTTP API accepts besides QASM, and what `qsimplify simplify --format json`
// writes. Round trips are exact: import, simplify, export and re-import
// yield equal graphs.
//
// # JSON Format
//
//	{
//	  "height": 2,
//	  "width": 2,
//	  "nodes": [
//	    {"gate": "h", "row": 0, "col": 0},
//	    {"gate": "cx", "row": 0, "col": 1},
//	    {"gate": "id", "row": 1, "col": 0},
//	    {"gate": "cx", "row": 1, "col": 1}
//	  ],
//	  "edges": [
//	    {"from": {"row": 0, "col": 1}, "to": {"row": 1, "col": 1}, "kind": "targets"},
//	    {"from": {"row": 1, "col": 1}, "to": {"row": 0, "col": 1}, "kind": "controlled_by"}
//	  ]
//	}
//
// Fillers are written as "id" nodes so the grid keeps its exact shape.
// Height and width are informational on write and checked on read.
//
// # Node Fields
//
// Required: gate, row, col. Optional: angle (radians, parametrized gates)
// and bit (measure).
//
// # Edges
//
// Only semantic edges (swap, targets, controlled_by, co_control) are
// written. Left/right edges are derived from the grid and rebuilt on read;
// if present in the input they are ignored.
//
// # Import
//
// [ReadJSON] and [ImportJSON] reject unknown fields, overlapping nodes,
// edges between missing nodes and incomplete gate groups. Missing cells are
// filled.
//
// # Export
//
// [WriteJSON] and [ExportJSON] write nodes and edges in row-major order, so
// equal graphs always serialize to identical bytes.
package io
