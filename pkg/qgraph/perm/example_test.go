package perm_test

import (
	"fmt"

	"github.com/matzehuels/qsimplify/pkg/qgraph/perm"
)

func ExampleOrdered() {
	// Place a two-row pattern on a three-row graph.
	for p := range perm.Ordered([]int{0, 1, 2}, 2) {
		fmt.Println(p)
	}
	// Output:
	// [0 1]
	// [0 2]
	// [1 0]
	// [1 2]
	// [2 0]
	// [2 1]
}
