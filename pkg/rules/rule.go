// Package rules defines rewrite rules and loads them from rule documents.
//
// A [Rule] pairs a pattern graph with a replacement graph. Both are built
// with exact shape (see the build package): the pattern is matched against
// a circuit graph and the matched cells are replaced with the replacement.
// Rules are collected into an immutable, ordered [Set] that the simplifier
// applies in order.
//
// Rule documents are JSON or YAML lists of entries:
//
//	- name: hh
//	  pattern:
//	    - {gate: h, qubit: 0}
//	    - {gate: h, qubit: 0}
//	  replacement: []
//
// [Default] returns the bundled rule set.
package rules

import (
	"fmt"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
)

var (
	// ErrEmptyPattern is returned for a pattern graph without nodes.
	ErrEmptyPattern = qerrors.New(qerrors.ErrCodeInvalidPattern, "pattern is empty")

	// ErrNoAnchor is returned for a pattern holding only fillers.
	ErrNoAnchor = qerrors.New(qerrors.ErrCodeInvalidPattern, "pattern has no anchor node")

	// ErrReplacementTooLarge is returned when the replacement's bounding box
	// does not fit inside the pattern's.
	ErrReplacementTooLarge = qerrors.New(qerrors.ErrCodeInvalidPattern, "replacement exceeds pattern bounds")
)

// Anchor returns the first non-filler node of pattern in row-major order.
// Every match attempt starts from a graph node similar to it.
func Anchor(pattern *qgraph.Graph) (qgraph.Node, error) {
	if pattern == nil || pattern.Len() == 0 {
		return qgraph.Node{}, ErrEmptyPattern
	}
	for _, n := range pattern.Nodes() {
		if !n.IsFiller() {
			return n, nil
		}
	}
	return qgraph.Node{}, ErrNoAnchor
}

// Mask marks, for each cell of a rule's bounding box, whether the pattern
// holds a gate there. The box spans both the replacement and the pattern,
// so pattern cells the replacement does not cover keep their own occupancy.
// Cells marked false are "don't care": the matcher accepts a filler for
// them. Cells outside the box read true.
type Mask struct {
	height, width int
	cells         []bool
}

// NewMask derives the mask of a pattern/replacement pair.
func NewMask(pattern, replacement *qgraph.Graph) Mask {
	m := Mask{
		height: max(pattern.Height(), replacement.Height()),
		width:  max(pattern.Width(), replacement.Width()),
	}
	m.cells = make([]bool, m.height*m.width)
	for r := range m.height {
		for c := range m.width {
			n, ok := pattern.Node(qgraph.Pos(r, c))
			m.cells[qgraph.Pos(r, c).Index(m.width)] = ok && !n.IsFiller()
		}
	}
	return m
}

// Height returns the number of rows of the mask box.
func (m Mask) Height() int { return m.height }

// Width returns the number of columns of the mask box.
func (m Mask) Width() int { return m.width }

// At reports whether the cell must match strictly.
func (m Mask) At(row, col int) bool {
	if row < 0 || col < 0 || row >= m.height || col >= m.width {
		return true
	}
	return m.cells[qgraph.Pos(row, col).Index(m.width)]
}

// String renders the mask as rows of '#' (strict) and '.' (don't care).
func (m Mask) String() string {
	b := make([]byte, 0, m.height*(m.width+1))
	for r := range m.height {
		for c := range m.width {
			if m.At(r, c) {
				b = append(b, '#')
			} else {
				b = append(b, '.')
			}
		}
		b = append(b, '\n')
	}
	return string(b)
}

// Rule is an immutable pattern/replacement pair.
type Rule struct {
	Name string

	pattern     *qgraph.Graph
	replacement *qgraph.Graph
	mask        Mask
	anchor      qgraph.Node
}

// NewRule validates and freezes a rule. The graphs are copied; the pattern
// is filled and its angles normalized so it compares directly with
// normalized circuit graphs.
func NewRule(name string, pattern, replacement *qgraph.Graph) (*Rule, error) {
	if pattern == nil {
		return nil, fmt.Errorf("rule %q: %w", name, ErrEmptyPattern)
	}
	if replacement == nil {
		replacement = qgraph.New()
	}
	p, r := pattern.Clone(), replacement.Clone()
	p.Fill()
	r.Fill()
	if err := clean.NormalizeAngles(p); err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}

	anchor, err := Anchor(p)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	if r.Height() > p.Height() || r.Width() > p.Width() {
		return nil, fmt.Errorf("rule %q: %dx%d replacement in %dx%d pattern: %w",
			name, r.Height(), r.Width(), p.Height(), p.Width(), ErrReplacementTooLarge)
	}
	return &Rule{
		Name:        name,
		pattern:     p,
		replacement: r,
		mask:        NewMask(p, r),
		anchor:      anchor,
	}, nil
}

// Pattern returns a copy of the pattern graph.
func (r *Rule) Pattern() *qgraph.Graph { return r.pattern.Clone() }

// Replacement returns a copy of the replacement graph.
func (r *Rule) Replacement() *qgraph.Graph { return r.replacement.Clone() }

// Mask returns the rule's mask.
func (r *Rule) Mask() Mask { return r.mask }

// Anchor returns the pattern's anchor node.
func (r *Rule) Anchor() qgraph.Node { return r.anchor }

// String returns the rule name and pattern dimensions.
func (r *Rule) String() string {
	return fmt.Sprintf("%s (%dx%d -> %dx%d)", r.Name,
		r.pattern.Height(), r.pattern.Width(), r.replacement.Height(), r.replacement.Width())
}
