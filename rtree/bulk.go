package rtree

import (
	"math/bits"
	"slices"

	"github.com/bmharper/geomkernel/geom"
)

// Item is an input to BulkLoad.
type Item[V any] struct {
	Box   geom.Box
	Value V
}

const hilbertMax = (1 << 16) - 1

// BulkLoad inserts items and returns their handles in input order.
//
// On an empty index the tree is packed bottom-up in one pass: items are sorted
// by the Hilbert value of their box centers and grouped into nodes of
// bulk-node-size members, which gives far better query performance than
// repeated Insert. If the index already holds entries, items are inserted
// one at a time.
func (t *Index[V]) BulkLoad(items []Item[V]) []Handle {
	handles := make([]Handle, 0, len(items))
	if len(items) == 0 {
		return handles
	}
	if !t.IsEmpty() {
		for _, it := range items {
			handles = append(handles, t.Insert(it.Value, it.Box))
		}
		return handles
	}

	recs := make([]*record[V], len(items))
	bounds := geom.InvalidBox()
	for i, it := range items {
		recs[i] = t.newRecord(it.Value, it.Box)
		handles = append(handles, recs[i].Handle)
		bounds = bounds.Merge(it.Box)
	}

	// map item centers into Hilbert coordinate space and calculate Hilbert values
	values := make([]uint32, len(recs))
	for i, r := range recs {
		x := hilbertCoord(r.Box.XM(), bounds.XL, bounds.XH)
		y := hilbertCoord(r.Box.YM(), bounds.YL, bounds.YH)
		values[i] = hilbertXYToIndex(16, x, y)
	}

	// sort items by their Hilbert value (for packing later)
	sortValuesAndRecords(values, recs, 0, len(recs)-1)

	// generate nodes at each tree level, bottom-up
	size := t.opts.bulkNodeSize
	level := make([]*node[V], 0, len(recs)/size+1)
	pos := 0
	for _, n := range groupSizes(len(recs), size) {
		leaf := &node[V]{leaf: true, items: slices.Clone(recs[pos : pos+n])}
		leaf.adopt()
		leaf.recompute()
		level = append(level, leaf)
		pos += n
	}
	height := 1
	for len(level) > 1 {
		next := make([]*node[V], 0, len(level)/size+1)
		pos = 0
		for _, n := range groupSizes(len(level), size) {
			parent := &node[V]{children: slices.Clone(level[pos : pos+n])}
			parent.adopt()
			parent.recompute()
			next = append(next, parent)
			pos += n
		}
		level = next
		height++
	}

	t.root = level[0]
	t.height = height
	t.gen++
	t.opts.logger.Debug("bulk loaded", "entries", len(recs), "height", height, "node_size", size)
	return handles
}

// groupSizes splits n consecutive members into ceil(n/size) runs whose
// lengths differ by at most one, so that no packed node is left underfull.
func groupSizes(n, size int) []int {
	groups := (n + size - 1) / size
	out := make([]int, groups)
	for i := range out {
		out[i] = n / groups
		if i < n%groups {
			out[i]++
		}
	}
	return out
}

// hilbertCoord scales c from [lo, hi] onto [0, hilbertMax].
func hilbertCoord(c, lo, hi geom.Coord) uint32 {
	if c <= lo || hi <= lo {
		return 0
	}
	if c >= hi {
		return hilbertMax
	}
	span := uint64(hi - lo)
	h, l := bits.Mul64(uint64(c-lo), hilbertMax)
	q, _ := bits.Div64(h, l, span)
	return uint32(q)
}

// custom quicksort that sorts records alongside the hilbert values
func sortValuesAndRecords[V any](values []uint32, recs []*record[V], left, right int) {
	if left >= right {
		return
	}

	pivot := values[(left+right)>>1]
	i := left - 1
	j := right + 1

	for {
		i++
		for values[i] < pivot {
			i++
		}
		j--
		for values[j] > pivot {
			j--
		}
		if i >= j {
			break
		}
		values[i], values[j] = values[j], values[i]
		recs[i], recs[j] = recs[j], recs[i]
	}

	sortValuesAndRecords(values, recs, left, j)
	sortValuesAndRecords(values, recs, j+1, right)
}

// hilbertXYToIndex returns the position of (x, y) along a Hilbert curve of
// order n.
func hilbertXYToIndex(n uint32, x uint32, y uint32) uint32 {
	x = x << (16 - n)
	y = y << (16 - n)

	var A, B, C, D uint32

	// Initial prefix scan round, prime with x and y
	{
		a := x ^ y
		b := 0xFFFF ^ a
		c := 0xFFFF ^ (x | y)
		d := x & (y ^ 0xFFFF)

		A = a | (b >> 1)
		B = (a >> 1) ^ a

		C = ((c >> 1) ^ (b & (d >> 1))) ^ c
		D = ((a & (c >> 1)) ^ (d >> 1)) ^ d
	}

	for _, shift := range [2]uint32{2, 4} {
		a, b, c, d := A, B, C, D

		A = (a & (a >> shift)) ^ (b & (b >> shift))
		B = (a & (b >> shift)) ^ (b & ((a ^ b) >> shift))

		C ^= (a & (c >> shift)) ^ (b & (d >> shift))
		D ^= (b & (c >> shift)) ^ ((a ^ b) & (d >> shift))
	}

	// Final round and projection
	{
		a, b, c, d := A, B, C, D

		C ^= (a & (c >> 8)) ^ (b & (d >> 8))
		D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))
	}

	// Undo transformation prefix scan
	a := C ^ (C >> 1)
	b := D ^ (D >> 1)

	// Recover index bits
	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	return ((interleave(i1) << 1) | interleave(i0)) >> (32 - 2*n)
}

// From https://github.com/rawrunprotected/hilbert_curves (public domain)
func interleave(x uint32) uint32 {
	x = (x | (x << 8)) & 0x00FF00FF
	x = (x | (x << 4)) & 0x0F0F0F0F
	x = (x | (x << 2)) & 0x33333333
	x = (x | (x << 1)) & 0x55555555
	return x
}
