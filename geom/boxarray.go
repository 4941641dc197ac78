package geom

import (
	"fmt"
	"iter"

	"github.com/bmharper/geomkernel/internal/checked"
)

// BoxArray is a box replicated on a regular grid: the member at column i and
// row j is Base moved by (i*Pitch(X), j*Pitch(Y)). Members are computed on
// demand and never stored.
type BoxArray struct {
	base  Box
	num   [2]int64
	pitch [2]Coord
}

// NewBoxArray returns an nx by ny array of base with pitches spx and spy.
func NewBoxArray(base Box, nx, ny int64, spx, spy Coord) (BoxArray, error) {
	if nx <= 0 || ny <= 0 {
		return BoxArray{}, fmt.Errorf("box array nx = %d, ny = %d: %w", nx, ny, ErrInvalidArgument)
	}
	a := BoxArray{base: base, num: [2]int64{nx, ny}, pitch: [2]Coord{spx, spy}}
	if err := a.check(); err != nil {
		return BoxArray{}, err
	}
	return a, nil
}

// NewBoxArrayOrient builds an array with nt members at pitch spt along axis
// and np members at pitch spp along the perpendicular axis.
func NewBoxArrayOrient(base Box, axis Axis, nt int64, spt Coord, np int64, spp Coord) (BoxArray, error) {
	if nt <= 0 || np <= 0 {
		return BoxArray{}, fmt.Errorf("box array nt = %d, np = %d: %w", nt, np, ErrInvalidArgument)
	}
	var num [2]int64
	var pitch [2]Coord
	num[axis], num[axis^1] = nt, np
	pitch[axis], pitch[axis^1] = spt, spp
	return NewBoxArray(base, num[X], num[Y], pitch[X], pitch[Y])
}

// SingleBox wraps one box as a 1x1 array.
func SingleBox(base Box) BoxArray {
	return BoxArray{base: base, num: [2]int64{1, 1}}
}

// check verifies that the member count and every member coordinate fit in
// int64, so the accessors below can use plain arithmetic.
func (a BoxArray) check() error {
	if _, ok := checked.Mul(a.num[X], a.num[Y]); !ok {
		return fmt.Errorf("box array %v: member count: %w", a, ErrOverflow)
	}
	for _, axis := range []Axis{X, Y} {
		span, ok := checked.Mul(a.num[axis]-1, a.pitch[axis])
		if ok {
			_, ok = checked.Add(a.base.Coord(axis, Lower), span)
		}
		if ok {
			_, ok = checked.Add(a.base.Coord(axis, Upper), span)
		}
		if !ok {
			return fmt.Errorf("box array %v: extent along %v: %w", a, axis, ErrOverflow)
		}
	}
	return nil
}

func (a BoxArray) String() string {
	return fmt.Sprintf("BoxArray(%v, %d, %d, %d, %d)", a.base, a.num[X], a.num[Y], a.pitch[X], a.pitch[Y])
}

func (a BoxArray) Base() Box { return a.base }

func (a BoxArray) NX() int64 { return a.num[X] }
func (a BoxArray) NY() int64 { return a.num[Y] }

func (a BoxArray) SpX() Coord { return a.pitch[X] }
func (a BoxArray) SpY() Coord { return a.pitch[Y] }

// Num returns the member count along axis.
func (a BoxArray) Num(axis Axis) int64 { return a.num[axis] }

// Pitch returns the member spacing along axis.
func (a BoxArray) Pitch(axis Axis) Coord { return a.pitch[axis] }

// Len returns the total number of member boxes.
func (a BoxArray) Len() int64 {
	return a.num[X] * a.num[Y]
}

func (a BoxArray) Equal(o BoxArray) bool {
	return a == o
}

// Member returns the box at linear index i, enumerated row by row.
func (a BoxArray) Member(i int64) (Box, error) {
	if i < 0 || i >= a.Len() {
		return Box{}, fmt.Errorf("box array member %d of %d: %w", i, a.Len(), ErrOutOfBounds)
	}
	col, row := i%a.num[X], i/a.num[X]
	return a.base.MoveBy(col*a.pitch[X], row*a.pitch[Y]), nil
}

// All yields every member with its linear index.
func (a BoxArray) All() iter.Seq2[int64, Box] {
	return func(yield func(int64, Box) bool) {
		for row := int64(0); row < a.num[Y]; row++ {
			for col := int64(0); col < a.num[X]; col++ {
				b := a.base.MoveBy(col*a.pitch[X], row*a.pitch[Y])
				if !yield(row*a.num[X]+col, b) {
					return
				}
			}
		}
	}
}

// Bound returns the outer edge of the whole array along axis. When the
// total span (num-1)*pitch is negative the array grows towards lower
// coordinates, so the span moves the lower edge rather than the upper one.
func (a BoxArray) Bound(axis Axis, side Side) Coord {
	cur := a.base.Coord(axis, side)
	span := (a.num[axis] - 1) * a.pitch[axis]
	if span < 0 {
		side = side.Flip()
	}
	if side == Upper {
		return cur + span
	}
	return cur
}

func (a BoxArray) XL() Coord { return a.Bound(X, Lower) }
func (a BoxArray) XH() Coord { return a.Bound(X, Upper) }
func (a BoxArray) YL() Coord { return a.Bound(Y, Lower) }
func (a BoxArray) YH() Coord { return a.Bound(Y, Upper) }

func (a BoxArray) XM() Coord { return floor2(a.XL(), a.XH()) }
func (a BoxArray) YM() Coord { return floor2(a.YL(), a.YH()) }

// BoundBox returns the box covering every member.
func (a BoxArray) BoundBox() Box {
	return Box{XL: a.XL(), YL: a.YL(), XH: a.XH(), YH: a.YH()}
}

// MoveBy returns the array translated by (dx, dy).
func (a BoxArray) MoveBy(dx, dy Coord) (BoxArray, error) {
	xl, ok1 := checked.Add(a.base.XL, dx)
	xh, ok2 := checked.Add(a.base.XH, dx)
	yl, ok3 := checked.Add(a.base.YL, dy)
	yh, ok4 := checked.Add(a.base.YH, dy)
	if !(ok1 && ok2 && ok3 && ok4) {
		return BoxArray{}, fmt.Errorf("move %v by (%d, %d): %w", a, dx, dy, ErrOverflow)
	}
	a.base = Box{XL: xl, YL: yl, XH: xh, YH: yh}
	if err := a.check(); err != nil {
		return BoxArray{}, err
	}
	return a, nil
}

// SetInterval replaces the base box extent along axis.
func (a BoxArray) SetInterval(axis Axis, lo, hi Coord) (BoxArray, error) {
	a.base = a.base.SetInterval(axis, lo, hi)
	if err := a.check(); err != nil {
		return BoxArray{}, err
	}
	return a, nil
}

// ExtendOrient extends the base box, see Box.ExtendOrient.
func (a BoxArray) ExtendOrient(axis Axis, ct, cp *Coord) (BoxArray, error) {
	a.base = a.base.ExtendOrient(axis, ct, cp)
	if err := a.check(); err != nil {
		return BoxArray{}, err
	}
	return a, nil
}

// Transform applies t to the array. The base is transformed as a box and the
// pitch as a vector; when t swaps the axes the counts are swapped too, so the
// result enumerates the same physical rectangles.
func (a BoxArray) Transform(t Transform) (BoxArray, error) {
	base, err := a.base.Transform(t)
	if err != nil {
		return BoxArray{}, err
	}
	spx, spy, err := t.ApplyVector(a.pitch[X], a.pitch[Y])
	if err != nil {
		return BoxArray{}, err
	}
	out := BoxArray{base: base, num: a.num, pitch: [2]Coord{spx, spy}}
	if t.SwapsXY() {
		out.num[X], out.num[Y] = out.num[Y], out.num[X]
	}
	if err := out.check(); err != nil {
		return BoxArray{}, err
	}
	return out, nil
}

// SubArray splits the array along axis into divisor interleaved sub-arrays
// and returns the index-th one: members index, index+divisor, ... with
// count ceil((num-index)/divisor) and pitch pitch*divisor.
func (a BoxArray) SubArray(axis Axis, divisor, index int64) (BoxArray, error) {
	if divisor <= 0 {
		return BoxArray{}, fmt.Errorf("sub array divisor %d: %w", divisor, ErrInvalidArgument)
	}
	n := a.num[axis]
	if index < 0 || index >= divisor || index >= n {
		return BoxArray{}, fmt.Errorf("sub array index %d (divisor %d, count %d): %w", index, divisor, n, ErrOutOfBounds)
	}
	pitch, ok := checked.Mul(a.pitch[axis], divisor)
	if !ok {
		return BoxArray{}, fmt.Errorf("sub array pitch %d * %d: %w", a.pitch[axis], divisor, ErrOverflow)
	}
	q, r := n/divisor, n%divisor
	count := q
	if index < r {
		count++
	}
	out := a
	out.base = a.base.MoveByOrient(axis, index*a.pitch[axis], 0)
	out.num[axis] = count
	out.pitch[axis] = pitch
	if err := out.check(); err != nil {
		return BoxArray{}, err
	}
	return out, nil
}
