package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterval(t *testing.T) {
	_, err := NewInterval(5, 4)
	require.True(t, errors.Is(err, ErrInvalidArgument))

	a, err := NewInterval(0, 10)
	require.NoError(t, err)
	b := Interval{10, 20}
	c := Interval{5, 15}

	require.False(t, a.Overlaps(b))
	require.True(t, a.Touches(b))
	require.True(t, a.Overlaps(c))
	require.False(t, a.Touches(c))
	require.True(t, a.ContainsPoint(0))
	require.False(t, a.ContainsPoint(10))
	require.True(t, a.Covers(Interval{2, 10}))
	require.False(t, a.Covers(c))

	r, ok := a.Intersect(c)
	require.True(t, ok)
	require.Equal(t, Interval{5, 10}, r)
	_, ok = a.Intersect(b)
	require.False(t, ok)

	require.Equal(t, Interval{0, 20}, a.Union(b))
	require.Equal(t, Interval{3, 13}, a.Shift(3))
	require.Equal(t, Coord(10), a.Len())
	require.True(t, Interval{4, 4}.IsEmpty())
	require.Equal(t, "[0, 10)", a.String())
}

func TestFloor2(t *testing.T) {
	for _, tc := range [][3]Coord{{0, 0, 0}, {1, 2, 1}, {-1, 0, -1}, {-3, -2, -3}, {3, 4, 3}, {math.MaxInt64, math.MaxInt64, math.MaxInt64}, {math.MinInt64, math.MinInt64, math.MinInt64}} {
		require.Equal(t, tc[2], floor2(tc[0], tc[1]), "floor2(%d, %d)", tc[0], tc[1])
	}
}

func TestBoxProperties(t *testing.T) {
	data := []struct {
		xl, yl, xh, yh  Coord
		physical, valid bool
	}{
		{0, 0, 0, 0, false, true},
		{0, 0, -1, -1, false, false},
		{2, 4, 2, 7, false, true},
		{2, 4, 2, -1, false, false},
		{1, 4, 4, 4, false, true},
		{1, 4, 4, 3, false, false},
		{-2, -3, 6, 12, true, true},
		{0, 0, 3, 5, true, true},
	}
	for _, d := range data {
		b := NewBox(d.xl, d.yl, d.xh, d.yh)
		require.Equal(t, d.physical, b.IsPhysical(), "%v", b)
		require.Equal(t, d.valid, b.IsValid(), "%v", b)
		require.Equal(t, floor2(d.xl, d.xh), b.XM())
		require.Equal(t, floor2(d.yl, d.yh), b.YM())
		require.Equal(t, d.xh-d.xl, b.Dim(X))
		require.Equal(t, d.yh-d.yl, b.Dim(Y))
		require.Equal(t, Interval{d.xl, d.xh}, b.Interval(X))
		require.Equal(t, Interval{d.yl, d.yh}, b.Interval(Y))
		require.Equal(t, b, NewBoxOrient(X, d.xl, d.xh, d.yl, d.yh))
		require.Equal(t, b, NewBoxOrient(Y, d.yl, d.yh, d.xl, d.xh))
	}
	require.False(t, InvalidBox().IsValid())
}

func TestBoxTransform(t *testing.T) {
	data := []struct {
		box    Box
		dx, dy Coord
		orient Orientation
		expect Box
	}{
		{NewBox(1, 1, 3, 6), 2, -4, R0, NewBox(3, -3, 5, 2)},
		{NewBox(0, 0, 3, 6), 0, 0, R90, NewBox(-6, 0, 0, 3)},
		{NewBox(0, 0, 3, 6), 1, 1, R90, NewBox(-5, 1, 1, 4)},
	}
	for _, d := range data {
		got, err := d.box.Transform(NewTransform(d.dx, d.dy, d.orient))
		require.NoError(t, err)
		require.Equal(t, d.expect, got)
	}

	_, err := NewBox(math.MinInt64, 0, 0, 1).Transform(NewTransform(0, 0, R180))
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestBoxMergeInvalid(t *testing.T) {
	a := NewBox(0, 0, 2, 3)
	b := NewBox(100, 103, 200, 102)
	require.Equal(t, a, a.Merge(b))
	require.Equal(t, a, b.Merge(a))
	require.Equal(t, a, InvalidBox().Merge(a))
	require.Equal(t, NewBox(0, 0, 10, 10), a.Merge(NewBox(5, 5, 10, 10)))
}

func TestBoxPredicates(t *testing.T) {
	a := NewBox(0, 0, 10, 10)
	edge := NewBox(10, 0, 20, 10)
	corner := NewBox(10, 10, 20, 20)
	inside := NewBox(2, 2, 3, 3)

	require.True(t, a.Intersects(edge))
	require.False(t, a.Overlaps(edge))
	require.True(t, a.Intersects(corner))
	require.False(t, a.Overlaps(corner))
	require.True(t, a.Overlaps(inside))
	require.True(t, a.Contains(inside))
	require.False(t, a.Intersect(edge).IsPhysical())
	require.True(t, a.Intersect(edge).IsValid())
	require.False(t, a.Intersect(NewBox(11, 0, 20, 10)).IsValid())
}

func TestBoxMoveAndExtend(t *testing.T) {
	b := NewBox(550, 80, 619, 2992)
	require.Equal(t, NewBox(678, 80, 747, 2992), b.MoveByOrient(Y, 0, 128))
	require.Equal(t, NewBox(550, 208, 619, 3120), b.MoveByOrient(X, 0, 128))

	x, y := Coord(-5), Coord(4000)
	require.Equal(t, NewBox(-5, 80, 619, 4000), b.Extend(&x, &y))
	require.Equal(t, NewBox(550, -5, 619, 2992), b.ExtendOrient(Y, &x, nil))
	require.Equal(t, NewBox(540, 60, 629, 3012), b.Expand(10, 20))
	require.Equal(t, NewBox(80, 550, 2992, 619), b.FlipXY())
	require.Equal(t, NewBox(550, 1, 619, 2), b.SetInterval(Y, 1, 2))
}

func TestOrientationAlgebra(t *testing.T) {
	pts := [][2]Coord{{0, 0}, {1, 0}, {0, 1}, {3, -7}, {-11, 5}}
	for o := R0; o <= MYR90; o++ {
		inv := o.Inverse()
		require.Equal(t, R0, o.Then(inv), "%v", o)
		require.Equal(t, o, o.FlipLR().FlipLR())
		for p := R0; p <= MYR90; p++ {
			a := NewTransform(3, -2, o)
			b := NewTransform(-7, 11, p)
			ab := a.Compose(b)
			for _, pt := range pts {
				x, y := a.Apply(pt[0], pt[1])
				x, y = b.Apply(x, y)
				cx, cy := ab.Apply(pt[0], pt[1])
				require.Equal(t, [2]Coord{x, y}, [2]Coord{cx, cy}, "%v then %v", o, p)
			}
		}
		tr := NewTransform(5, 9, o)
		for _, pt := range pts {
			x, y := tr.Apply(pt[0], pt[1])
			bx, by := tr.Invert().Apply(x, y)
			require.Equal(t, pt, [2]Coord{bx, by})
		}
	}
	require.True(t, R90.SwapsXY())
	require.False(t, R180.SwapsXY())
	require.Equal(t, MXR90, R90.FlipLR())
	require.Equal(t, MYR90, R90.FlipUD())
	require.Equal(t, [2]int64{1, -1}, R90.AxisScale())
	require.Equal(t, [2]int64{-1, 1}, MY.AxisScale())
	require.Equal(t, R270, R90.Inverse())
}
