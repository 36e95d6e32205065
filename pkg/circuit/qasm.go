package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

var (
	registerRegex = regexp.MustCompile(`^(qreg|creg)\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex  = regexp.MustCompile(`^measure\s+(\w+)\s*\[\s*(\d+)\s*\]\s*->\s*(\w+)\s*\[\s*(\d+)\s*\]$`)
	gateRegex     = regexp.MustCompile(`^([A-Za-z]\w*)\s*(?:\(([^()]*)\))?\s+(.+)$`)
	operandRegex  = regexp.MustCompile(`^(\w+)\s*\[\s*(\d+)\s*\]$`)
)

// ParseQASM reads an OpenQASM 2 program. Supported statements are the
// header and include lines, one qreg, at most one creg, barrier (ignored),
// measure and applications of the gates qgraph knows, with pi expressions
// as parameters. Anything else is an error naming the line.
func ParseQASM(src string) (*Circuit, error) {
	p := &qasmParser{c: New(0, 0)}
	for i, line := range strings.Split(src, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for stmt := range strings.SplitSeq(line, ";") {
			stmt = strings.Join(strings.Fields(stmt), " ")
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, qerrors.Wrap(qerrors.ErrCodeInvalidCircuit, err, "qasm line %d", i+1)
			}
		}
	}
	if p.qreg == "" {
		return nil, qerrors.New(qerrors.ErrCodeInvalidCircuit, "qasm: no qreg declared")
	}
	return p.c, nil
}

type qasmParser struct {
	c    *Circuit
	qreg string
	creg string
}

func (p *qasmParser) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"):
		if !strings.HasPrefix(stmt, "OPENQASM 2") {
			return fmt.Errorf("unsupported version %q", stmt)
		}
		return nil
	case strings.HasPrefix(stmt, "include "):
		return nil
	case strings.HasPrefix(stmt, "barrier "):
		return nil
	}

	if m := registerRegex.FindStringSubmatch(stmt); m != nil {
		size, err := strconv.Atoi(m[3])
		if err != nil {
			return fmt.Errorf("register size %q: %w", m[3], err)
		}
		if m[1] == "qreg" {
			if p.qreg != "" {
				return fmt.Errorf("second qreg %s; only one quantum register is supported", m[2])
			}
			p.qreg, p.c.NumQubits = m[2], size
			return nil
		}
		if p.creg != "" {
			return fmt.Errorf("second creg %s; only one classical register is supported", m[2])
		}
		p.creg, p.c.NumBits = m[2], size
		return nil
	}

	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.index(m[1], m[2], p.qreg)
		if err != nil {
			return err
		}
		b, err := p.index(m[3], m[4], p.creg)
		if err != nil {
			return err
		}
		return p.c.Append(qgraph.Measure.On(q).WithBit(b))
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("cannot parse %q", stmt)
	}
	kind, ok := qgraph.ParseKind(m[1])
	if !ok || kind == qgraph.Measure {
		return qerrors.New(qerrors.ErrCodeUnsupported, "unsupported gate %q", m[1])
	}
	var qubits []int
	for op := range strings.SplitSeq(m[3], ",") {
		om := operandRegex.FindStringSubmatch(strings.TrimSpace(op))
		if om == nil {
			return fmt.Errorf("%s: bad operand %q", m[1], op)
		}
		q, err := p.index(om[1], om[2], p.qreg)
		if err != nil {
			return err
		}
		qubits = append(qubits, q)
	}
	gate := kind.On(qubits...)

	switch {
	case kind.Parametrized() && m[2] == "":
		return fmt.Errorf("%s: missing parameter", m[1])
	case !kind.Parametrized() && m[2] != "":
		return fmt.Errorf("%s takes no parameter", m[1])
	case kind.Parametrized():
		if strings.Contains(m[2], ",") {
			return fmt.Errorf("%s: expected one parameter, got %q", m[1], m[2])
		}
		angle, err := qgraph.ParseAngle(m[2])
		if err != nil {
			return fmt.Errorf("%s: %w", m[1], err)
		}
		gate = gate.WithAngle(angle)
	}
	return p.c.Append(gate)
}

func (p *qasmParser) index(reg, idx, want string) (int, error) {
	if want == "" || reg != want {
		return 0, fmt.Errorf("undeclared register %q", reg)
	}
	return strconv.Atoi(idx)
}

// QASM renders the circuit as an OpenQASM 2 program. Parameters are
// written in pi notation where possible. Identity instructions are kept
// as id.
func (c *Circuit) QASM() string {
	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", max(c.NumQubits, 1))
	if c.NumBits > 0 {
		fmt.Fprintf(&b, "creg c[%d];\n", c.NumBits)
	}
	if len(c.Instructions) > 0 {
		b.WriteByte('\n')
	}
	for _, gate := range c.Instructions {
		writeGate(&b, gate)
	}
	return b.String()
}

func writeGate(b *strings.Builder, gate qgraph.Gate) {
	if gate.Kind == qgraph.Measure {
		fmt.Fprintf(b, "measure q[%d] -> c[%d];\n", gate.Qubits[0], gate.Bit)
		return
	}
	b.WriteString(gate.Kind.String())
	if gate.Kind.Parametrized() {
		fmt.Fprintf(b, "(%s)", qgraph.FormatAngle(gate.Angle))
	}
	for i, q := range gate.Qubits {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "q[%d]", q)
	}
	b.WriteString(";\n")
}
