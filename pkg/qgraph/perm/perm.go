// Package perm enumerates ordered row assignments for pattern matching.
//
// A pattern spanning k rows can sit on any k of a graph's n rows, in any
// order. Those candidates are the k-permutations of the n row indices,
// and this package produces them in lexicographic order so that the first
// match found by a search is always the same one.
package perm

import "iter"

// Ordered yields every ordered selection of k distinct elements of pool,
// in lexicographic order of pool positions. For pool [0 1 2] and k = 2 the
// sequence is [0 1] [0 2] [1 0] [1 2] [2 0] [2 1].
//
// k = 0 yields a single empty selection; k > len(pool) yields nothing.
// The yielded slice is reused between iterations; clone it to keep it.
func Ordered(pool []int, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > len(pool) {
			return
		}
		used := make([]bool, len(pool))
		cur := make([]int, 0, k)

		var walk func() bool
		walk = func() bool {
			if len(cur) == k {
				return yield(cur)
			}
			for i, v := range pool {
				if used[i] {
					continue
				}
				used[i] = true
				cur = append(cur, v)
				ok := walk()
				cur = cur[:len(cur)-1]
				used[i] = false
				if !ok {
					return false
				}
			}
			return true
		}
		walk()
	}
}
