package clean_test

import (
	"math"
	"testing"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
)

func mustBuild(t *testing.T, b *build.Builder) *qgraph.Graph {
	t.Helper()
	g, err := b.Build(false)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestTrimRows(t *testing.T) {
	g := mustBuild(t, build.New().
		Push(qgraph.H.On(0)).
		Push(qgraph.CX.On(2, 4)))

	n, err := clean.TrimRows(g)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || g.Height() != 3 {
		t.Fatalf("removed %d rows, height %d; want 2, 3", n, g.Height())
	}
	// CX moved from rows 2,4 to rows 1,2 with its edges
	if ts := g.NodeEdges(qgraph.Pos(1, 0)).Targets; len(ts) != 1 || ts[0] != qgraph.Pos(2, 0) {
		t.Errorf("targets of (1,0) = %v", ts)
	}
}

func TestTrimColumns(t *testing.T) {
	g := mustBuild(t, build.New().
		Put(qgraph.H.On(0), 1).
		Put(qgraph.Swap.On(0, 1), 4))

	n, err := clean.TrimColumns(g)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || g.Width() != 2 {
		t.Fatalf("removed %d columns, width %d; want 3, 2", n, g.Width())
	}
	if p := g.NodeEdges(qgraph.Pos(0, 1)).Swap; p == nil || *p != qgraph.Pos(1, 1) {
		t.Errorf("swap partner of (0,1) = %v", p)
	}
}

func TestNormalizeAngles(t *testing.T) {
	g := mustBuild(t, build.New().
		Push(qgraph.RZ.On(0).WithAngle(5*math.Pi)).
		Push(qgraph.P.On(1).WithAngle(-math.Pi/2)).
		Push(qgraph.CP.On(0, 1).WithAngle(2*math.Pi)))

	if err := clean.NormalizeAngles(g); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		pos  qgraph.Position
		want float64
	}{
		{qgraph.Pos(0, 0), math.Pi},
		{qgraph.Pos(1, 0), 3 * math.Pi / 2},
		{qgraph.Pos(1, 1), 0},
	}
	for _, tt := range tests {
		n, _ := g.Node(tt.pos)
		if !qgraph.AnglesEqual(n.Angle, tt.want) {
			t.Errorf("%s angle = %v, want %v", tt.pos, n.Angle, tt.want)
		}
	}
	ne := g.NodeEdges(qgraph.Pos(1, 1))
	if len(ne.ControlledBy) != 1 || ne.ControlledBy[0] != qgraph.Pos(0, 1) {
		t.Errorf("CP target lost its control: %+v", ne)
	}
	if ts := g.NodeEdges(qgraph.Pos(0, 1)).Targets; len(ts) != 1 {
		t.Errorf("CP control targets = %v", ts)
	}
}

func TestRenumberBits(t *testing.T) {
	g := mustBuild(t, build.New().
		Push(qgraph.Measure.On(0).WithBit(7)).
		Push(qgraph.Measure.On(1).WithBit(3)).
		Push(qgraph.Measure.On(2).WithBit(7)))

	if err := clean.RenumberBits(g); err != nil {
		t.Fatal(err)
	}
	want := []int{1, 0, 1}
	for row, bit := range want {
		n, _ := g.Node(qgraph.Pos(row, 0))
		if n.Bit != bit {
			t.Errorf("row %d bit = %d, want %d", row, n.Bit, bit)
		}
	}
}

func TestNormalizeAnglesPeriods(t *testing.T) {
	tests := []struct {
		name string
		gate qgraph.Gate
		at   qgraph.Position
		want float64
	}{
		{"rx full turns", qgraph.RX.On(0).WithAngle(8 * math.Pi), qgraph.Pos(0, 0), 0},
		{"rz below period", qgraph.RZ.On(0).WithAngle(3 * math.Pi), qgraph.Pos(0, 0), 3 * math.Pi},
		{"cp odd turns", qgraph.CP.On(0, 1).WithAngle(3 * math.Pi), qgraph.Pos(1, 0), math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustBuild(t, build.New().Push(tt.gate))
			if err := clean.NormalizeAngles(g); err != nil {
				t.Fatal(err)
			}
			n, _ := g.Node(tt.at)
			if !qgraph.AnglesEqual(n.Angle, tt.want) {
				t.Errorf("angle = %v, want %v", n.Angle, tt.want)
			}
			if tt.gate.Kind != qgraph.CP {
				return
			}
			ctrl, tgt := qgraph.Pos(0, 0), qgraph.Pos(1, 0)
			if cb := g.NodeEdges(tgt).ControlledBy; len(cb) != 1 || cb[0] != ctrl {
				t.Errorf("target controlled by %v, want [%s]", cb, ctrl)
			}
			if ts := g.NodeEdges(ctrl).Targets; len(ts) != 1 || ts[0] != tgt {
				t.Errorf("control targets %v, want [%s]", ts, tgt)
			}
		})
	}
}

func TestRenumberBitsCompactsGaps(t *testing.T) {
	g := mustBuild(t, build.New().
		Push(qgraph.Measure.On(0).WithBit(0)).
		Push(qgraph.Measure.On(1).WithBit(1)).
		Push(qgraph.Measure.On(2).WithBit(3)))

	if err := clean.RenumberBits(g); err != nil {
		t.Fatal(err)
	}
	for row, bit := range []int{0, 1, 2} {
		n, _ := g.Node(qgraph.Pos(row, 0))
		if n.Bit != bit {
			t.Errorf("row %d bit = %d, want %d", row, n.Bit, bit)
		}
	}
}

func TestNormalizeRemovesFillerRowsAndColumns(t *testing.T) {
	g := mustBuild(t, build.New().
		Put(qgraph.H.On(1), 2).
		Put(qgraph.X.On(3), 2))

	if err := clean.Normalize(g); err != nil {
		t.Fatal(err)
	}
	if g.Height() != 2 || g.Width() != 1 {
		t.Fatalf("dims %dx%d, want 2x1", g.Height(), g.Width())
	}
	if n, _ := g.Node(qgraph.Pos(1, 0)); n.Kind != qgraph.X {
		t.Errorf("(1,0) = %s, want x", n.Kind)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := map[string]*build.Builder{
		"sparse": build.New().
			Put(qgraph.RX.On(2).WithAngle(9), 3).
			Put(qgraph.CCX.On(0, 2, 4), 5),
		"measured": build.New().
			Push(qgraph.H.On(0)).
			Push(qgraph.Measure.On(0).WithBit(4)).
			Push(qgraph.Measure.On(1).WithBit(2)),
		"all filler": build.New().Put(qgraph.Identity.On(1), 1),
	}
	for name, b := range inputs {
		t.Run(name, func(t *testing.T) {
			g := mustBuild(t, b)
			if err := clean.Normalize(g); err != nil {
				t.Fatal(err)
			}
			once := g.Clone()
			if err := clean.Normalize(g); err != nil {
				t.Fatal(err)
			}
			if !g.Equal(once) {
				t.Errorf("second Normalize changed the graph:\n%s\nvs\n%s", once, g)
			}
			if !g.Dense() {
				t.Error("normalized graph is not dense")
			}
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	g := qgraph.New()
	if err := clean.Normalize(g); err != nil {
		t.Fatal(err)
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d", g.Len())
	}
}
