package rtree

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bmharper/geomkernel/geom"
)

func TestHilbertCurve(t *testing.T) {
	// every cell of an order-4 curve is visited once, and consecutive
	// positions are neighbouring cells
	const order = 4
	const side = 1 << order
	cells := make([][2]int, side*side)
	seen := make([]bool, side*side)
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			d := hilbertXYToIndex(order, uint32(x), uint32(y))
			require.Less(t, int(d), side*side)
			require.False(t, seen[d])
			seen[d] = true
			cells[d] = [2]int{x, y}
		}
	}
	for i := 1; i < len(cells); i++ {
		dx := cells[i][0] - cells[i-1][0]
		dy := cells[i][1] - cells[i-1][1]
		require.Equal(t, 1, dx*dx+dy*dy, "step %d", i)
	}
}

func TestHilbertCoord(t *testing.T) {
	require.Equal(t, uint32(0), hilbertCoord(0, 0, 10))
	require.Equal(t, uint32(0), hilbertCoord(-5, 0, 10))
	require.Equal(t, uint32(hilbertMax), hilbertCoord(10, 0, 10))
	require.Equal(t, uint32(hilbertMax), hilbertCoord(20, 0, 10))
	require.Equal(t, uint32(32767), hilbertCoord(5, 0, 10))
	require.Equal(t, uint32(0), hilbertCoord(3, 3, 3))
	require.Equal(t, uint32(32767), hilbertCoord(0, math.MinInt64, math.MaxInt64))
}

func TestGroupSizes(t *testing.T) {
	require.Equal(t, []int{1}, groupSizes(1, 16))
	require.Equal(t, []int{16}, groupSizes(16, 16))
	require.Equal(t, []int{9, 8}, groupSizes(17, 16))
	require.Equal(t, []int{11, 11, 11}, groupSizes(33, 16))
	for n := 1; n < 200; n++ {
		total := 0
		for _, s := range groupSizes(n, 8) {
			require.LessOrEqual(t, s, 8)
			if n >= 8 {
				require.GreaterOrEqual(t, s, 4)
			}
			total += s
		}
		require.Equal(t, n, total)
	}
}

func TestBulkLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for _, n := range []int{1, 5, 16, 17, 300, 5000} {
		idx := New[int](WithMaxEntries(8))
		items := make([]Item[int], n)
		for i := range items {
			items[i] = Item[int]{Box: randomBox(rng, 200, 20), Value: i}
		}
		handles := idx.BulkLoad(items)
		require.Len(t, handles, n)
		checkTree(t, idx)
		require.Equal(t, n, idx.Len())

		ref := make([]refEntry, n)
		for i, h := range handles {
			v, err := idx.Get(h)
			require.NoError(t, err)
			require.Equal(t, i, v)
			b, err := idx.Box(h)
			require.NoError(t, err)
			require.Equal(t, items[i].Box, b)
			ref[i] = refEntry{h, items[i].Box}
		}
		compareQueries(t, idx, ref, rng, 200)

		// the packed tree must keep working under ordinary edits
		for i := 0; i < n/2; i++ {
			_, err := idx.Remove(ref[i].h)
			require.NoError(t, err)
		}
		ref = ref[n/2:]
		for i := 0; i < 50; i++ {
			b := randomBox(rng, 200, 20)
			ref = append(ref, refEntry{idx.Insert(-1, b), b})
		}
		checkTree(t, idx)
		compareQueries(t, idx, ref, rng, 100)
	}
}

func TestBulkLoadIntoNonEmpty(t *testing.T) {
	idx := New[string]()
	first := idx.Insert("a", geom.NewBox(0, 0, 1, 1))
	handles := idx.BulkLoad([]Item[string]{
		{Box: geom.NewBox(5, 5, 6, 6), Value: "b"},
		{Box: geom.NewBox(7, 7, 8, 8), Value: "c"},
	})
	require.Len(t, handles, 2)
	require.Greater(t, handles[0], first)
	require.Equal(t, 3, idx.Len())
	require.Equal(t, geom.NewBox(0, 0, 8, 8), idx.Bounds())
	checkTree(t, idx)

	require.Empty(t, idx.BulkLoad(nil))
}

func TestBulkLoadIdenticalBoxes(t *testing.T) {
	idx := New[int](WithMaxEntries(4))
	items := make([]Item[int], 100)
	for i := range items {
		items[i] = Item[int]{Box: geom.NewBox(3, 3, 3, 3), Value: i}
	}
	idx.BulkLoad(items)
	checkTree(t, idx)
	res, err := idx.QueryIntersect(geom.NewBox(3, 3, 3, 3)).Collect()
	require.NoError(t, err)
	require.Len(t, res, 100)
	res, err = idx.QueryOverlap(geom.NewBox(0, 0, 10, 10)).Collect()
	require.NoError(t, err)
	require.Len(t, res, 100)
}

func BenchmarkBulkLoad(b *testing.B) {
	dim := 100
	items := make([]Item[int], 0, dim*dim)
	for x := 0; x < dim; x++ {
		for y := 0; y < dim; y++ {
			cx, cy := geom.Coord(x*10), geom.Coord(y*10)
			items = append(items, Item[int]{Box: geom.NewBox(cx+1, cy+1, cx+9, cy+9), Value: len(items)})
		}
	}
	start := time.Now()
	for i := 0; i < b.N; i++ {
		New[int]().BulkLoad(items)
	}
	nanoseconds := float64(time.Now().Sub(start).Nanoseconds())
	b.Logf("Time per item: %.1f ns", nanoseconds/float64(b.N*len(items)))
}
