package rtree

import (
	"math"
	"math/bits"

	"github.com/bmharper/geomkernel/geom"
)

// area is an exact unsigned 128-bit box area. The width and height of any
// valid int64 box fit in a uint64, so their product always fits.
type area struct {
	hi, lo uint64
}

var maxArea = area{math.MaxUint64, math.MaxUint64}

func boxArea(b geom.Box) area {
	if !b.IsValid() {
		return area{}
	}
	hi, lo := bits.Mul64(uint64(b.XH-b.XL), uint64(b.YH-b.YL))
	return area{hi, lo}
}

// add saturates at maxArea.
func (a area) add(b area) area {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, carry := bits.Add64(a.hi, b.hi, carry)
	if carry != 0 {
		return maxArea
	}
	return area{hi, lo}
}

// sub requires a >= b.
func (a area) sub(b area) area {
	lo, borrow := bits.Sub64(a.lo, b.lo, 0)
	hi, _ := bits.Sub64(a.hi, b.hi, borrow)
	return area{hi, lo}
}

func (a area) cmp(b area) int {
	switch {
	case a.hi < b.hi:
		return -1
	case a.hi > b.hi:
		return 1
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	}
	return 0
}

func absDiff(a, b area) area {
	if a.cmp(b) < 0 {
		return b.sub(a)
	}
	return a.sub(b)
}

// enlargement is how much the area of b grows when it is merged with add.
func enlargement(b, add geom.Box) area {
	return boxArea(b.Merge(add)).sub(boxArea(b))
}

// pickSeeds returns the pair of boxes that would waste the most area if they
// were put in the same node.
func pickSeeds(boxes []geom.Box) (int, int) {
	s1, s2 := 0, 1
	var bestJ, bestS area
	for i := 0; i < len(boxes); i++ {
		ai := boxArea(boxes[i])
		for j := i + 1; j < len(boxes); j++ {
			joint := boxArea(boxes[i].Merge(boxes[j]))
			sum := ai.add(boxArea(boxes[j]))
			// joint - sum > bestJ - bestS, rearranged to stay unsigned
			if (i == 0 && j == 1) || joint.add(bestS).cmp(bestJ.add(sum)) > 0 {
				s1, s2 = i, j
				bestJ, bestS = joint, sum
			}
		}
	}
	return s1, s2
}

// quadraticSplit partitions boxes into two groups of at least minFill
// members each, using Guttman's quadratic-cost split. It returns the indices
// that make up each group.
func quadraticSplit(boxes []geom.Box, minFill int) (g1, g2 []int) {
	s1, s2 := pickSeeds(boxes)
	g1 = append(make([]int, 0, len(boxes)), s1)
	g2 = append(make([]int, 0, len(boxes)), s2)
	b1, b2 := boxes[s1], boxes[s2]

	rest := make([]int, 0, len(boxes)-2)
	for i := range boxes {
		if i != s1 && i != s2 {
			rest = append(rest, i)
		}
	}

	for len(rest) != 0 {
		// one group needs everything that is left to reach the minimum
		if len(g1)+len(rest) <= minFill {
			g1 = append(g1, rest...)
			break
		}
		if len(g2)+len(rest) <= minFill {
			g2 = append(g2, rest...)
			break
		}

		// pick the member with the strongest preference for one group
		best := 0
		var bestDiff, d1, d2 area
		for k, i := range rest {
			e1 := enlargement(b1, boxes[i])
			e2 := enlargement(b2, boxes[i])
			diff := absDiff(e1, e2)
			if k == 0 || diff.cmp(bestDiff) > 0 {
				best, bestDiff, d1, d2 = k, diff, e1, e2
			}
		}
		i := rest[best]
		rest[best] = rest[len(rest)-1]
		rest = rest[:len(rest)-1]

		first := false
		switch c := d1.cmp(d2); {
		case c < 0:
			first = true
		case c > 0:
			first = false
		default:
			switch ac := boxArea(b1).cmp(boxArea(b2)); {
			case ac != 0:
				first = ac < 0
			default:
				first = len(g1) <= len(g2)
			}
		}
		if first {
			g1 = append(g1, i)
			b1 = b1.Merge(boxes[i])
		} else {
			g2 = append(g2, i)
			b2 = b2.Merge(boxes[i])
		}
	}
	return g1, g2
}
