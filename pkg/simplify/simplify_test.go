package simplify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

func graph(t *testing.T, b *build.Builder) *qgraph.Graph {
	t.Helper()
	g, err := b.Build(false)
	require.NoError(t, err)
	return g
}

func rule(t *testing.T, name string, pattern, replacement *build.Builder) *rules.Rule {
	t.Helper()
	var repl *qgraph.Graph
	if replacement != nil {
		repl = graph(t, replacement)
	}
	r, err := rules.NewRule(name, graph(t, pattern), repl)
	require.NoError(t, err)
	return r
}

func hh(t *testing.T) *rules.Rule {
	return rule(t, "h-h", build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)), nil)
}

func kindAt(t *testing.T, g *qgraph.Graph, row, col int) qgraph.Kind {
	t.Helper()
	n, ok := g.Node(qgraph.Pos(row, col))
	require.True(t, ok, "no node at (%d,%d)", row, col)
	return n.Kind
}

func TestApplyRuleKeepsOddGate(t *testing.T) {
	g := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)).Push(qgraph.H.On(0)))

	n, err := ApplyRule(g, hh(t))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, qgraph.Identity, kindAt(t, g, 0, 0))
	assert.Equal(t, qgraph.Identity, kindAt(t, g, 0, 1))
	assert.Equal(t, qgraph.H, kindAt(t, g, 0, 2))
	assert.True(t, g.Dense())
}

func TestSearchFirstMatchRowMajor(t *testing.T) {
	g := graph(t, build.New().
		Push(qgraph.H.On(1)).Push(qgraph.H.On(1)).
		Push(qgraph.X.On(0)).Push(qgraph.H.On(0)).Push(qgraph.H.On(0)))
	r := hh(t)

	m, ok, err := Search(g, r.Pattern(), r.Mask())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []qgraph.Position{qgraph.Pos(0, 1), qgraph.Pos(0, 2)}, m.Sources())
	assert.Equal(t, qgraph.Pos(0, 0), m[qgraph.Pos(0, 1)])
}

func TestSearchRespectsControlDirection(t *testing.T) {
	pattern := build.New().
		Put(qgraph.CX.On(0, 1), 0).
		Put(qgraph.H.On(0), 1).
		Put(qgraph.X.On(1), 1)
	r := rule(t, "cx-h", pattern, nil)

	reversed := graph(t, build.New().
		Put(qgraph.CX.On(1, 0), 0).
		Put(qgraph.H.On(0), 1).
		Put(qgraph.X.On(1), 1))
	_, ok, err := Search(reversed, r.Pattern(), r.Mask())
	require.NoError(t, err)
	assert.False(t, ok, "target row must not match the control row")

	same := graph(t, build.New().
		Put(qgraph.CX.On(0, 1), 0).
		Put(qgraph.H.On(0), 1).
		Put(qgraph.X.On(1), 1))
	_, ok, err = Search(same, r.Pattern(), r.Mask())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSearchPermutesRows(t *testing.T) {
	r := rule(t, "cx-cx", build.New().Push(qgraph.CX.On(0, 1)).Push(qgraph.CX.On(0, 1)), nil)
	g := graph(t, build.New().
		Push(qgraph.X.On(1)).
		Push(qgraph.CX.On(2, 0)).
		Push(qgraph.CX.On(2, 0)))

	m, ok, err := Search(g, r.Pattern(), r.Mask())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, qgraph.Pos(0, 0), m[qgraph.Pos(2, 0)])
	assert.Equal(t, qgraph.Pos(1, 1), m[qgraph.Pos(0, 1)])

	n, err := ApplyRule(g, r)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, g.GateCount())
}

func TestMaskDontCareCells(t *testing.T) {
	pattern := func() *build.Builder {
		return build.New().Push(qgraph.H.On(1)).Push(qgraph.CX.On(0, 1)).Push(qgraph.H.On(1))
	}
	// The fillers beside the control lie outside the replacement but still
	// match fillers.
	r := rule(t, "h-cx-h", pattern(), build.New().Put(qgraph.CZ.On(0, 1), 1))

	g := graph(t, pattern())
	n, err := ApplyRule(g, r)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, qgraph.CZ, kindAt(t, g, 0, 1))
	assert.Equal(t, qgraph.CZ, kindAt(t, g, 1, 1))
	assert.Equal(t, qgraph.Identity, kindAt(t, g, 1, 0))
	assert.Equal(t, qgraph.Identity, kindAt(t, g, 1, 2))
	assert.Equal(t, qgraph.Identity, kindAt(t, g, 0, 2))

	gate, _, err := g.GateAt(qgraph.Pos(1, 1))
	require.NoError(t, err)
	assert.Equal(t, qgraph.CZ.On(0, 1), gate)

	// A gate where the pattern has a filler is not a match.
	busy := graph(t, pattern().Put(qgraph.X.On(0), 0))
	n, err = ApplyRule(busy, r)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPatternsMatchThemselves(t *testing.T) {
	set, err := rules.Default()
	require.NoError(t, err)
	all := set.Rules()
	all = append(all,
		rule(t, "h-cx", build.New().Push(qgraph.H.On(0)).Push(qgraph.CX.On(0, 1)), nil),
		rule(t, "gap", build.New().Put(qgraph.X.On(0), 0).Put(qgraph.X.On(1), 2), nil),
		rule(t, "h-cx-h", build.New().Push(qgraph.H.On(1)).Push(qgraph.CX.On(0, 1)).Push(qgraph.H.On(1)),
			build.New().Put(qgraph.CZ.On(0, 1), 1)),
	)

	for _, r := range all {
		t.Run(r.Name, func(t *testing.T) {
			m, ok, err := Search(r.Pattern(), r.Pattern(), r.Mask())
			require.NoError(t, err)
			require.True(t, ok, "pattern\n%s", r.Pattern())
			assert.Len(t, m, r.Pattern().Len())

			g := r.Pattern()
			n, err := ApplyRule(g, r)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestExtractRewriteRoundTrip(t *testing.T) {
	g := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.CX.On(0, 1)).Push(qgraph.RZ.On(1).WithAngle(1)))
	mask := rules.NewMask(g, g)

	sub, m, ok := ExtractSubgraph(g, []int{0, 1}, 0, g.Width(), mask)
	require.True(t, ok)
	assert.True(t, sub.Equal(g))
	assert.Len(t, m, g.Len())

	before := g.Clone()
	require.NoError(t, Rewrite(g, sub, m))
	assert.True(t, g.Equal(before), "got\n%s\nwant\n%s", g, before)
}

func TestExtractRejectsDanglingEdges(t *testing.T) {
	g := graph(t, build.New().Push(qgraph.CX.On(0, 1)))
	_, _, ok := ExtractSubgraph(g, []int{0}, 0, 1, rules.NewMask(g, g))
	assert.False(t, ok)

	_, _, ok = ExtractSubgraph(g, []int{0, 1}, 0, 2, rules.NewMask(g, g))
	assert.False(t, ok, "row runs out of columns")
}

func TestRewriteUnresolvedLeavesGraph(t *testing.T) {
	g := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)))
	before := g.Clone()
	repl := graph(t, build.New().Put(qgraph.X.On(0), 3))

	err := Rewrite(g, repl, Mapping{qgraph.Pos(0, 0): qgraph.Pos(0, 0)})
	require.ErrorIs(t, err, ErrUnresolvedPosition)
	assert.True(t, g.Equal(before))
}

func TestSimplifyDoesNotMutateInput(t *testing.T) {
	g := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)).Push(qgraph.X.On(1)))
	before := g.Clone()

	res, err := New(rules.NewSet(hh(t)), Options{}).Simplify(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, g.Equal(before))
	assert.NotSame(t, g, res.Graph)
	assert.Equal(t, 3, res.Stats.GatesBefore)
	assert.Equal(t, 1, res.Stats.GatesAfter)
	assert.Equal(t, map[string]int{"h-h": 1}, res.Stats.RewritesByRule)
}

func TestSimplifyDefaultRules(t *testing.T) {
	set, err := rules.Default()
	require.NoError(t, err)

	tests := []struct {
		name string
		b    *build.Builder
		want *build.Builder
	}{
		{"h-x-h", build.New().Push(qgraph.H.On(0)).Push(qgraph.X.On(0)).Push(qgraph.H.On(0)),
			build.New().Push(qgraph.Z.On(0))},
		{"odd hadamards", build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)).Push(qgraph.H.On(0)),
			build.New().Push(qgraph.H.On(0))},
		{"t-t-t-t", build.New().Push(qgraph.T.On(0)).Push(qgraph.T.On(0)).Push(qgraph.T.On(0)).Push(qgraph.T.On(0)),
			build.New().Push(qgraph.Z.On(0))},
		{"cx pair behind gate", build.New().Push(qgraph.X.On(0)).Push(qgraph.CX.On(0, 1)).Push(qgraph.CX.On(0, 1)),
			build.New().Push(qgraph.X.On(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph(t, tt.b)
			want, err := tt.want.Build(true)
			require.NoError(t, err)

			got, err := Simplify(g, set, 3)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got\n%s\nwant\n%s", got, want)
		})
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	set, err := rules.Default()
	require.NoError(t, err)
	g := graph(t, build.New().
		Push(qgraph.H.On(0)).Push(qgraph.H.On(0)).
		Push(qgraph.CX.On(0, 1)).Push(qgraph.CX.On(0, 1)).
		Push(qgraph.X.On(1)).Push(qgraph.T.On(0)).Push(qgraph.T.On(0)).
		Push(qgraph.RZ.On(2).WithAngle(0.25)))

	s := New(set, Options{Iterations: 5})
	first, err := s.Simplify(context.Background(), g)
	require.NoError(t, err)
	second, err := s.Simplify(context.Background(), first.Graph)
	require.NoError(t, err)

	assert.True(t, second.Graph.Equal(first.Graph))
	assert.Zero(t, second.Stats.Rewrites)
	assert.Equal(t, 1, second.Stats.Iterations)
}

func TestSimplifyTrace(t *testing.T) {
	g := graph(t, build.New().
		Push(qgraph.H.On(0)).Push(qgraph.H.On(0)).
		Push(qgraph.H.On(1)).Push(qgraph.H.On(1)))

	res, err := New(rules.NewSet(hh(t)), Options{Trace: true}).Simplify(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, res.Stats.Rewrites, len(res.Steps))
	assert.Equal(t, "h-h", res.Steps[0].Rule)
	assert.Equal(t, 1, res.Steps[0].Iteration)
	assert.Equal(t, 2, res.Steps[0].Graph.GateCount())
	assert.Zero(t, res.Steps[1].Graph.GateCount())
}

func TestSimplifyPermutationBudget(t *testing.T) {
	r := rule(t, "cx-cx", build.New().Push(qgraph.CX.On(0, 1)).Push(qgraph.CX.On(0, 1)), nil)
	g := graph(t, build.New().
		Push(qgraph.X.On(0)).Push(qgraph.X.On(1)).Push(qgraph.X.On(2)).Push(qgraph.X.On(3)).
		Push(qgraph.CX.On(2, 3)).Push(qgraph.CX.On(2, 3)))

	res, err := New(rules.NewSet(r), Options{MaxPermutations: 1}).Simplify(context.Background(), g)
	require.Error(t, err)
	assert.True(t, qerrors.Is(err, qerrors.ErrCodeBudgetExceeded))
	assert.True(t, IsBudgetExceeded(err))
	require.NotNil(t, res)
	assert.Equal(t, 6, res.Stats.GatesAfter)
	assert.Equal(t, 2, res.Stats.Permutations)
}

func TestSimplifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)))

	res, err := New(rules.NewSet(hh(t)), Options{}).Simplify(ctx, g)
	require.Error(t, err)
	assert.True(t, IsBudgetExceeded(err))
	assert.Zero(t, res.Stats.Rewrites)
	assert.Equal(t, 2, res.Graph.GateCount())
}

func TestSimplifyRequiresRules(t *testing.T) {
	_, err := New(nil, Options{}).Simplify(context.Background(), qgraph.New())
	assert.True(t, qerrors.Is(err, qerrors.ErrCodeInvalidInput))
}
