package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
)

func TestToDOT(t *testing.T) {
	g, err := build.New().
		Push(qgraph.H.On(0)).
		Push(qgraph.CCX.On(0, 1, 2)).
		Push(qgraph.Swap.On(1, 2)).
		Build(false)
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		`n0_0 [label="h"`,
		"n0_1 -> n2_1 [penwidth=2, constraint=false];",
		"n0_1 -> n1_1 [style=dotted, dir=none, constraint=false];",
		"n1_2 -> n2_2 [style=dashed, dir=both, constraint=false];",
		"subgraph col2",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "n2_2 -> n1_2") {
		t.Error("reverse swap edge drawn")
	}
	if strings.Contains(dot, "n2_1 -> n0_1") {
		t.Error("controlled_by edge drawn")
	}
}

func TestToDOTHideFillers(t *testing.T) {
	g, err := build.New().Push(qgraph.X.On(1)).Build(false)
	if err != nil {
		t.Fatal(err)
	}
	g.Fill()
	if err := g.InsertColumn(0); err != nil {
		t.Fatal(err)
	}
	if dot := ToDOT(g, Options{HideFillers: true}); strings.Contains(dot, "shape=point") {
		t.Errorf("filler drawn:\n%s", dot)
	}
	if dot := ToDOT(g, Options{}); !strings.Contains(dot, "shape=point") {
		t.Errorf("filler missing:\n%s", dot)
	}
}
