package diff

import (
	"slices"

	"github.com/roach88/spine/internal/rational"
)

// pairing is the outcome of matching two lists: matched index pairs in the
// order of the first list, and the indices left over on each side.
type pairing struct {
	pairs [][2]int
	onlyA []int
	onlyB []int
}

// match pairs elements of a and b that share a key. Within a key, pairs are
// taken greedily by smallest position distance; equal distances go to the
// earlier element of a, then of b.
func match[T any](a, b []T, key func(T) string, pos func(T) rational.TimeValue) pairing {
	var keys []string
	groupA := make(map[string][]int)
	groupB := make(map[string][]int)
	for i, x := range a {
		k := key(x)
		if _, seen := groupA[k]; !seen {
			keys = append(keys, k)
		}
		groupA[k] = append(groupA[k], i)
	}
	for j, y := range b {
		k := key(y)
		if _, seenA := groupA[k]; !seenA {
			if _, seenB := groupB[k]; !seenB {
				keys = append(keys, k)
			}
		}
		groupB[k] = append(groupB[k], j)
	}

	usedA := make([]bool, len(a))
	usedB := make([]bool, len(b))
	var out pairing
	for _, k := range keys {
		type candidate struct {
			i, j int
			dist rational.TimeValue
		}
		var cands []candidate
		for _, i := range groupA[k] {
			for _, j := range groupB[k] {
				cands = append(cands, candidate{i, j, pos(a[i]).Sub(pos(b[j])).Abs()})
			}
		}
		slices.SortFunc(cands, func(x, y candidate) int {
			if c := x.dist.Cmp(y.dist); c != 0 {
				return c
			}
			if x.i != y.i {
				return x.i - y.i
			}
			return x.j - y.j
		})
		for _, c := range cands {
			if usedA[c.i] || usedB[c.j] {
				continue
			}
			usedA[c.i], usedB[c.j] = true, true
			out.pairs = append(out.pairs, [2]int{c.i, c.j})
		}
	}

	slices.SortFunc(out.pairs, func(x, y [2]int) int { return x[0] - y[0] })
	for i, used := range usedA {
		if !used {
			out.onlyA = append(out.onlyA, i)
		}
	}
	for j, used := range usedB {
		if !used {
			out.onlyB = append(out.onlyB, j)
		}
	}
	return out
}
