// Package circuit converts between gate lists and circuit graphs.
//
// A [Circuit] is an ordered instruction list over a quantum and a classical
// register. [ToGraph] lays it out on a grid the way [build.Builder.Push]
// does; [FromGraph] reads a graph back column by column. [ParseQASM] and
// [Circuit.QASM] cover the OpenQASM 2 subset made of the gates qgraph knows.
package circuit

import (
	"fmt"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
)

// ErrInvalidCircuit is returned for instructions that do not fit the
// circuit's registers.
var ErrInvalidCircuit = qerrors.New(qerrors.ErrCodeInvalidCircuit, "invalid circuit")

// Circuit is an ordered list of gate applications.
type Circuit struct {
	NumQubits    int
	NumBits      int
	Instructions []qgraph.Gate
}

// New returns an empty circuit with the given register sizes.
func New(numQubits, numBits int) *Circuit {
	return &Circuit{NumQubits: numQubits, NumBits: numBits}
}

// Append validates gate against the registers and adds it.
func (c *Circuit) Append(gate qgraph.Gate) error {
	if err := c.check(gate); err != nil {
		return err
	}
	c.Instructions = append(c.Instructions, gate)
	return nil
}

// Len returns the number of instructions.
func (c *Circuit) Len() int { return len(c.Instructions) }

// Validate checks every instruction.
func (c *Circuit) Validate() error {
	for i, gate := range c.Instructions {
		if err := c.check(gate); err != nil {
			return &qerrors.IndexedError{Index: i, Field: "instruction", Err: err}
		}
	}
	return nil
}

func (c *Circuit) check(gate qgraph.Gate) error {
	if err := gate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCircuit, err)
	}
	for _, q := range gate.Qubits {
		if q >= c.NumQubits {
			return fmt.Errorf("%w: %s: qubit %d outside register of %d", ErrInvalidCircuit, gate, q, c.NumQubits)
		}
	}
	if gate.Kind == qgraph.Measure && gate.Bit >= c.NumBits {
		return fmt.Errorf("%w: %s: bit %d outside register of %d", ErrInvalidCircuit, gate, gate.Bit, c.NumBits)
	}
	return nil
}

// ToGraph lays the circuit out on a grid. Each instruction goes to the
// first column free on all of its qubits, so gates on disjoint qubits
// share columns. The graph is filled but not normalized.
func ToGraph(c *Circuit) (*qgraph.Graph, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b := build.New()
	for _, gate := range c.Instructions {
		if gate.Kind == qgraph.Identity {
			continue
		}
		b.Push(gate)
	}
	g, err := b.Build(false)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.ErrCodeInvalidCircuit, err, "circuit to graph")
	}
	return g, nil
}

// FromGraph reads g column by column, top to bottom, emitting one
// instruction per gate group the first time any of its nodes is seen.
// Fillers emit nothing. The register sizes are the graph height and one
// past the highest measured bit.
func FromGraph(g *qgraph.Graph) (*Circuit, error) {
	c := New(g.Height(), 0)
	seen := make(map[qgraph.Position]bool)
	for col := range g.Width() {
		for row := range g.Height() {
			p := qgraph.Pos(row, col)
			n, ok := g.Node(p)
			if !ok || n.IsFiller() || seen[p] {
				continue
			}
			gate, group, err := g.GateAt(p)
			if err != nil {
				return nil, qerrors.Wrap(qerrors.ErrCodeInvalidCircuit, err, "graph to circuit")
			}
			for _, q := range group {
				seen[q] = true
			}
			if gate.Kind == qgraph.Measure {
				c.NumBits = max(c.NumBits, gate.Bit+1)
			}
			c.Instructions = append(c.Instructions, gate)
		}
	}
	return c, nil
}
