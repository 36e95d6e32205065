package pipeline

import (
	"fmt"

	"github.com/matzehuels/qsimplify/pkg/circuit"
	qio "github.com/matzehuels/qsimplify/pkg/io"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// Decode reads a QASM program or graph JSON document into a graph.
func Decode(input []byte, format string) (*qgraph.Graph, error) {
	switch format {
	case FormatQASM:
		c, err := circuit.ParseQASM(string(input))
		if err != nil {
			return nil, err
		}
		return circuit.ToGraph(c)
	case FormatJSON:
		return qio.Unmarshal(input)
	}
	return nil, ValidateFormat(format)
}

// Encode writes g as a QASM program or graph JSON document.
func Encode(g *qgraph.Graph, format string) ([]byte, error) {
	switch format {
	case FormatQASM:
		c, err := circuit.FromGraph(g)
		if err != nil {
			return nil, fmt.Errorf("convert graph: %w", err)
		}
		return []byte(c.QASM()), nil
	case FormatJSON:
		return qio.Marshal(g)
	}
	return nil, ValidateFormat(format)
}
