package qgraph

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind identifies the gate a node belongs to. The set of kinds is closed:
// every operation that depends on the kind switches over all of them, and
// the switches panic on an unknown value so a new kind cannot be half wired.
type Kind uint8

const (
	// Identity is the filler kind occupying grid cells where no gate was placed.
	Identity Kind = iota
	H
	X
	Y
	Z
	S
	Sdg
	T
	Tdg
	SX
	SXdg
	RX
	RY
	RZ
	// P is the single-qubit phase gate.
	P
	CX
	CY
	CZ
	CH
	// CP is the controlled phase gate. Its angle lives on the target node.
	CP
	Swap
	CCX
	CCZ
	Measure
)

// Kinds lists every gate kind in declaration order.
var Kinds = []Kind{
	Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg, RX, RY, RZ, P,
	CX, CY, CZ, CH, CP, Swap, CCX, CCZ, Measure,
}

// String returns the lowercase gate name used in rule documents and QASM.
func (k Kind) String() string {
	switch k {
	case Identity:
		return "id"
	case H:
		return "h"
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	case S:
		return "s"
	case Sdg:
		return "sdg"
	case T:
		return "t"
	case Tdg:
		return "tdg"
	case SX:
		return "sx"
	case SXdg:
		return "sxdg"
	case RX:
		return "rx"
	case RY:
		return "ry"
	case RZ:
		return "rz"
	case P:
		return "p"
	case CX:
		return "cx"
	case CY:
		return "cy"
	case CZ:
		return "cz"
	case CH:
		return "ch"
	case CP:
		return "cp"
	case Swap:
		return "swap"
	case CCX:
		return "ccx"
	case CCZ:
		return "ccz"
	case Measure:
		return "measure"
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(k)))
}

// ParseKind resolves a gate name case-insensitively. A few common aliases
// (cnot, toffoli, u1, cphase) are accepted.
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "id", "i", "identity":
		return Identity, true
	case "h":
		return H, true
	case "x":
		return X, true
	case "y":
		return Y, true
	case "z":
		return Z, true
	case "s":
		return S, true
	case "sdg":
		return Sdg, true
	case "t":
		return T, true
	case "tdg":
		return Tdg, true
	case "sx":
		return SX, true
	case "sxdg":
		return SXdg, true
	case "rx":
		return RX, true
	case "ry":
		return RY, true
	case "rz":
		return RZ, true
	case "p", "u1", "phase":
		return P, true
	case "cx", "cnot":
		return CX, true
	case "cy":
		return CY, true
	case "cz":
		return CZ, true
	case "ch":
		return CH, true
	case "cp", "cu1", "cphase":
		return CP, true
	case "swap":
		return Swap, true
	case "ccx", "toffoli":
		return CCX, true
	case "ccz":
		return CCZ, true
	case "measure":
		return Measure, true
	}
	return 0, false
}

// Arity returns the number of qubits the gate acts on.
func (k Kind) Arity() int {
	switch k {
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg, RX, RY, RZ, P, Measure:
		return 1
	case CX, CY, CZ, CH, CP, Swap:
		return 2
	case CCX, CCZ:
		return 3
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(k)))
}

// Parametrized reports whether the gate carries a rotation or phase angle.
func (k Kind) Parametrized() bool {
	switch k {
	case RX, RY, RZ, P, CP:
		return true
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg,
		CX, CY, CZ, CH, Swap, CCX, CCZ, Measure:
		return false
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(k)))
}

// Period returns the natural period of the gate's angle: 4π for the
// ordinary rotations and 2π for pure phase gates. It is 0 for kinds
// without an angle.
func (k Kind) Period() float64 {
	switch k {
	case RX, RY, RZ:
		return 4 * math.Pi
	case P, CP:
		return 2 * math.Pi
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg,
		CX, CY, CZ, CH, Swap, CCX, CCZ, Measure:
		return 0
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(k)))
}

// Controls returns how many of the gate's qubits are controls.
func (k Kind) Controls() int {
	switch k {
	case CX, CY, CZ, CH, CP:
		return 1
	case CCX, CCZ:
		return 2
	case Identity, H, X, Y, Z, S, Sdg, T, Tdg, SX, SXdg, RX, RY, RZ, P, Swap, Measure:
		return 0
	}
	panic(fmt.Sprintf("qgraph: unknown gate kind %d", uint8(k)))
}

// NoBit marks a node that is not a measurement.
const NoBit = -1

// Gate is one gate application: a kind plus the qubits it acts on.
//
// Qubit order depends on the kind:
//   - single-qubit kinds and Measure: [q]
//   - singly controlled kinds: [control, target]
//   - Swap: [a, b]
//   - CCX, CCZ: [control1, control2, target]
//
// Angle is only meaningful for parametrized kinds, Bit only for Measure.
type Gate struct {
	Kind   Kind
	Qubits []int
	Angle  float64
	Bit    int
}

// Validate checks arity, qubit indices and the bit field.
func (g Gate) Validate() error {
	if len(g.Qubits) != g.Kind.Arity() {
		return fmt.Errorf("%s: want %d qubits, got %d", g.Kind, g.Kind.Arity(), len(g.Qubits))
	}
	for i, q := range g.Qubits {
		if q < 0 {
			return fmt.Errorf("%s: negative qubit index %d", g.Kind, q)
		}
		if slices.Contains(g.Qubits[:i], q) {
			return fmt.Errorf("%s: qubit %d used twice", g.Kind, q)
		}
	}
	if g.Kind == Measure && g.Bit < 0 {
		return fmt.Errorf("measure: negative bit index %d", g.Bit)
	}
	if math.IsNaN(g.Angle) || math.IsInf(g.Angle, 0) {
		return fmt.Errorf("%s: angle must be finite", g.Kind)
	}
	return nil
}

// Target returns the qubit the gate acts on (the last qubit). For Swap it
// is the second swapped qubit.
func (g Gate) Target() int { return g.Qubits[len(g.Qubits)-1] }

// String formats the gate in a compact QASM-like form, e.g. "cx q0,q1".
func (g Gate) String() string {
	var b strings.Builder
	b.WriteString(g.Kind.String())
	if g.Kind.Parametrized() {
		fmt.Fprintf(&b, "(%g)", g.Angle)
	}
	for i, q := range g.Qubits {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "q%d", q)
	}
	if g.Kind == Measure {
		fmt.Fprintf(&b, "->c%d", g.Bit)
	}
	return b.String()
}

// On returns a gate of kind k acting on the given qubits, with no angle and
// no classical bit. Use [Gate.WithAngle] and [Gate.WithBit] to complete
// parametrized gates and measurements:
//
//	qgraph.CX.On(0, 1)
//	qgraph.RZ.On(2).WithAngle(math.Pi / 2)
//	qgraph.Measure.On(0).WithBit(3)
func (k Kind) On(qubits ...int) Gate {
	return Gate{Kind: k, Qubits: slices.Clone(qubits), Bit: NoBit}
}

// WithAngle returns a copy of g carrying angle.
func (g Gate) WithAngle(angle float64) Gate {
	g.Angle = angle
	return g
}

// WithBit returns a copy of g measuring into bit.
func (g Gate) WithBit(bit int) Gate {
	g.Bit = bit
	return g
}
