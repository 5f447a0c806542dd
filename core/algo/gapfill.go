package algo

import (
	"fmt"
	"slices"
)

// FillGaps reconstructs missing positions of a criterion vector from their nearest
// known neighbours. The left neighbour is searched toward index 0 and then wraps
// around from the end; the right neighbour is searched toward the end and then
// wraps around from index 0. Two neighbours give their mean, one gives itself, none
// leaves the gap missing. Positions are filled left to right and a filled position
// counts as known for the gaps after it.
//
// The input is never mutated. The second return value lists the names of the
// filled positions; names should be aligned to values.
func FillGaps(values []float64, names []string) ([]float64, []string) {
	out := slices.Clone(values)
	n := len(out)
	var filled []string

	for i := range n {
		if !isMissing(out[i]) {
			continue
		}
		left, hasLeft := nearest(out, i, -1)
		right, hasRight := nearest(out, i, +1)

		switch {
		case hasLeft && hasRight:
			out[i] = (left + right) / 2
		case hasLeft:
			out[i] = left
		case hasRight:
			out[i] = right
		default:
			continue
		}
		filled = append(filled, positionName(names, i))
	}
	return out, filled
}

// nearest walks from i in direction step, wrapping once around the vector,
// and returns the first known value.
func nearest(values []float64, i, step int) (float64, bool) {
	n := len(values)
	for k := 1; k < n; k++ {
		j := ((i+step*k)%n + n) % n
		if !isMissing(values[j]) {
			return values[j], true
		}
	}
	return 0, false
}

func positionName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("#%d", i)
}
