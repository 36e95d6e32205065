package simplify

import (
	"context"
	"time"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/perm"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// Search finds the first occurrence of pattern in g. It returns false when
// there is none; an error is returned only for an invalid pattern. g is
// not modified.
//
// Candidates are tried in a fixed order: graph nodes similar to the
// pattern's anchor in row-major order, then, for each, every assignment of
// the remaining graph rows to the remaining pattern rows in lexicographic
// order. The anchor's row is pinned. The first candidate whose extracted
// subgraph equals the pattern wins.
func Search(g, pattern *qgraph.Graph, mask rules.Mask) (Mapping, bool, error) {
	var b budget
	return b.search(g, pattern, mask)
}

// budget bounds the work of a run. The zero value is unlimited.
type budget struct {
	ctx          context.Context
	deadline     time.Time
	maxPerms     int
	permutations int
}

var errPermutationBudget = qerrors.New(qerrors.ErrCodeBudgetExceeded, "permutation budget exhausted")

// tick accounts for one row assignment and reports whether the run must stop.
func (b *budget) tick() error {
	b.permutations++
	if b.maxPerms > 0 && b.permutations > b.maxPerms {
		return errPermutationBudget
	}
	if b.permutations%64 != 0 {
		return nil
	}
	return b.check()
}

func (b *budget) check() error {
	if b.ctx != nil {
		if err := b.ctx.Err(); err != nil {
			return qerrors.Wrap(qerrors.ErrCodeBudgetExceeded, err, "simplification interrupted")
		}
	}
	if !b.deadline.IsZero() && time.Now().After(b.deadline) {
		return qerrors.New(qerrors.ErrCodeBudgetExceeded, "time budget exhausted")
	}
	return nil
}

func (b *budget) search(g, pattern *qgraph.Graph, mask rules.Mask) (Mapping, bool, error) {
	anchor, err := rules.Anchor(pattern)
	if err != nil {
		return nil, false, err
	}
	ph, pw := pattern.Height(), pattern.Width()
	gh := g.Height()
	if gh < ph {
		return nil, false, nil
	}

	rows := make([]int, ph)
	for _, n := range g.Nodes() {
		if !n.Similar(anchor) {
			continue
		}
		start := n.Pos.Col - anchor.Pos.Col
		if start < 0 {
			continue
		}

		others := make([]int, 0, gh-1)
		for r := range gh {
			if r != n.Pos.Row {
				others = append(others, r)
			}
		}
		for assign := range perm.Ordered(others, ph-1) {
			if err := b.tick(); err != nil {
				return nil, false, err
			}
			i := 0
			for pr := range ph {
				if pr == anchor.Pos.Row {
					rows[pr] = n.Pos.Row
					continue
				}
				rows[pr] = assign[i]
				i++
			}
			sub, m, ok := ExtractSubgraph(g, rows, start, pw, mask)
			if ok && sub.Equal(pattern) {
				return m, true, nil
			}
		}
	}
	return nil, false, nil
}
