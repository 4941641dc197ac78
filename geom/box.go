package geom

import (
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle. It is valid when XL <= XH and YL <= YH,
// and physical when both inequalities are strict.
type Box struct {
	XL Coord
	YL Coord
	XH Coord
	YH Coord
}

// NewBox returns the box with the given corners.
func NewBox(xl, yl, xh, yh Coord) Box {
	return Box{XL: xl, YL: yl, XH: xh, YH: yh}
}

// NewBoxOrient builds a box from its interval along axis (tl, th) and its
// interval along the perpendicular axis (pl, ph).
func NewBoxOrient(axis Axis, tl, th, pl, ph Coord) Box {
	if axis == X {
		return Box{XL: tl, YL: pl, XH: th, YH: ph}
	}
	return Box{XL: pl, YL: tl, XH: ph, YH: th}
}

// InvalidBox returns an inverted box that acts as the identity for Merge.
func InvalidBox() Box {
	return Box{XL: math.MaxInt64, YL: math.MaxInt64, XH: math.MinInt64, YH: math.MinInt64}
}

func (b Box) String() string {
	return fmt.Sprintf("Box(%d, %d, %d, %d)", b.XL, b.YL, b.XH, b.YH)
}

func (b Box) IsValid() bool {
	return b.XL <= b.XH && b.YL <= b.YH
}

func (b Box) IsPhysical() bool {
	return b.XL < b.XH && b.YL < b.YH
}

func (b Box) Width() Coord {
	return b.XH - b.XL
}

func (b Box) Height() Coord {
	return b.YH - b.YL
}

// Dim returns the box size along axis.
func (b Box) Dim(axis Axis) Coord {
	if axis == X {
		return b.Width()
	}
	return b.Height()
}

// Coord returns the edge on the given side of axis.
func (b Box) Coord(axis Axis, side Side) Coord {
	switch {
	case axis == X && side == Lower:
		return b.XL
	case axis == X:
		return b.XH
	case side == Lower:
		return b.YL
	default:
		return b.YH
	}
}

// Center returns the midpoint along axis, rounded down.
func (b Box) Center(axis Axis) Coord {
	return floor2(b.Coord(axis, Lower), b.Coord(axis, Upper))
}

func (b Box) XM() Coord { return b.Center(X) }
func (b Box) YM() Coord { return b.Center(Y) }

// Interval returns the extent of the box along axis.
func (b Box) Interval(axis Axis) Interval {
	return Interval{Start: b.Coord(axis, Lower), Stop: b.Coord(axis, Upper)}
}

// SetInterval returns b with its extent along axis replaced by [lo, hi].
func (b Box) SetInterval(axis Axis, lo, hi Coord) Box {
	if axis == X {
		b.XL, b.XH = lo, hi
	} else {
		b.YL, b.YH = lo, hi
	}
	return b
}

// Intersect returns the common part of b and o. The result is invalid when
// they are disjoint.
func (b Box) Intersect(o Box) Box {
	return Box{XL: max(b.XL, o.XL), YL: max(b.YL, o.YL), XH: min(b.XH, o.XH), YH: min(b.YH, o.YH)}
}

// Intersects reports whether the boxes share any point, including
// boundary-only contact.
func (b Box) Intersects(o Box) bool {
	return b.XL <= o.XH && o.XL <= b.XH && b.YL <= o.YH && o.YL <= b.YH
}

// Overlaps reports whether the boxes share positive area.
func (b Box) Overlaps(o Box) bool {
	return b.XL < o.XH && o.XL < b.XH && b.YL < o.YH && o.YL < b.YH
}

// Contains reports whether o lies entirely within b.
func (b Box) Contains(o Box) bool {
	return b.XL <= o.XL && o.XH <= b.XH && b.YL <= o.YL && o.YH <= b.YH
}

// Merge returns the smallest box containing both. Invalid operands are
// ignored.
func (b Box) Merge(o Box) Box {
	if !o.IsValid() {
		return b
	}
	if !b.IsValid() {
		return o
	}
	return Box{XL: min(b.XL, o.XL), YL: min(b.YL, o.YL), XH: max(b.XH, o.XH), YH: max(b.YH, o.YH)}
}

// Extend grows b to include the given coordinates. A nil coordinate leaves
// that axis alone.
func (b Box) Extend(x, y *Coord) Box {
	if x != nil {
		b.XL = min(b.XL, *x)
		b.XH = max(b.XH, *x)
	}
	if y != nil {
		b.YL = min(b.YL, *y)
		b.YH = max(b.YH, *y)
	}
	return b
}

// ExtendOrient is Extend with coordinates given along axis (ct) and its
// perpendicular (cp).
func (b Box) ExtendOrient(axis Axis, ct, cp *Coord) Box {
	if axis == X {
		return b.Extend(ct, cp)
	}
	return b.Extend(cp, ct)
}

// Expand grows every side of b: dx on left and right, dy on bottom and top.
func (b Box) Expand(dx, dy Coord) Box {
	return Box{XL: b.XL - dx, YL: b.YL - dy, XH: b.XH + dx, YH: b.YH + dy}
}

func (b Box) MoveBy(dx, dy Coord) Box {
	return Box{XL: b.XL + dx, YL: b.YL + dy, XH: b.XH + dx, YH: b.YH + dy}
}

// MoveByOrient moves b by dt along axis and dp along the perpendicular axis.
func (b Box) MoveByOrient(axis Axis, dt, dp Coord) Box {
	if axis == X {
		return b.MoveBy(dt, dp)
	}
	return b.MoveBy(dp, dt)
}

// FlipXY swaps the X and Y extents.
func (b Box) FlipXY() Box {
	return Box{XL: b.YL, YL: b.XL, XH: b.YH, YH: b.XH}
}

// Transform maps both corners of b and renormalizes the result.
func (b Box) Transform(t Transform) (Box, error) {
	x0, y0, err := t.ApplyChecked(b.XL, b.YL)
	if err != nil {
		return Box{}, err
	}
	x1, y1, err := t.ApplyChecked(b.XH, b.YH)
	if err != nil {
		return Box{}, err
	}
	return Box{XL: min(x0, x1), YL: min(y0, y1), XH: max(x0, x1), YH: max(y0, y1)}, nil
}
