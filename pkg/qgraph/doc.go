// Package qgraph is the grid-indexed graph representation of a quantum
// circuit.
//
// # Grid
//
// Every gate application occupies cells of a grid: the row is the qubit,
// the column the time slot. A cell holds one [Node]. Cells without a gate
// hold an [Identity] filler once the graph is made dense with [Graph.Fill],
// so every position in [0,Height)x[0,Width) is occupied.
//
// A multi-qubit gate is a group of nodes in the same column, all carrying
// the gate's [Kind], joined by semantic edges:
//
//   - controlled gates: control -Targets-> target and target -ControlledBy-> control
//   - swap: a -SwapWith-> b and b -SwapWith-> a
//   - doubly controlled gates: both control pairs plus CoControl between the controls
//
// Positional Left/Right edges link horizontally adjacent occupied cells.
// They are derived data: [Graph.Fill] and [Graph.Connect] recompute them
// and nothing else should add them.
//
// # Building
//
// [Graph.PlaceGate] is the canonical way to put a [Gate] on the grid. Most
// callers use the builder in the build subpackage, which picks columns:
//
//	g, err := build.New().
//		Push(qgraph.H.On(0)).
//		Push(qgraph.CX.On(0, 1)).
//		Build(true)
//
// # Angles
//
// Angles are compared with [AnglesEqual], an absolute plus relative
// tolerance of 1e-9. Rotations (RX, RY, RZ) have period 4π and phases
// (P, CP) period 2π; see [NormalizeAngle].
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Clone before sharing.
package qgraph
